/*
Package authsdk is the Go client for the cookie session auth service, plus
the request, response and error types the server writes.

# Sessions

The service keeps no server side session. Login sets two HttpOnly cookies,
a short lived access token and a longer lived refresh token, and the
client's cookie jar carries them on every later call:

	client, err := authsdk.NewClient("http://localhost:8080")
	if err != nil {
		return err
	}

	user, err := client.Login(ctx, "a@b.com", "secret")

	// Authenticated with the access cookie
	me, err := client.Me(ctx)

	// When the access cookie has expired, swap the refresh cookie for a new pair
	err = client.Refresh(ctx)

	// Clear both cookies
	err = client.Logout(ctx)

# Errors

Every non-2xx response comes back as *APIError carrying the status code and
the server's "detail" message:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// log in again
	}
*/
package authsdk
