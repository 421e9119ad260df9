package authsdk

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Default cookie names. Servers can rename them; set Client.AccessCookie
// and Client.RefreshCookie to match.
const (
	DefaultAccessCookie  = "access_token"
	DefaultRefreshCookie = "refresh_token"
)

// Client talks to the auth service. Its HTTP client owns a cookie jar, so
// one Client is one browser-like session.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	AccessCookie  string
	RefreshCookie string

	base *url.URL
}

// NewClient creates a client with a fresh cookie jar.
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		AccessCookie:  DefaultAccessCookie,
		RefreshCookie: DefaultRefreshCookie,
		base:          base,
	}, nil
}

// Cookie returns the value the jar would send for name, or "".
func (c *Client) Cookie(name string) string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// SetCookie puts a cookie into the jar as if the server had set it. Useful
// for replaying an old token.
func (c *Client) SetCookie(name, value string) {
	if c.HTTPClient.Jar == nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(c.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}
