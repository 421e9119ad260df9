package domain

// SessionState is derived per request from the presented credentials and is
// never persisted. The zero value is anonymous.
type SessionState struct {
	identity      Identity
	authenticated bool
}

// Anonymous is the state of a request without a usable access token.
func Anonymous() SessionState { return SessionState{} }

// Authenticated is the state of a request carrying a valid access token.
func Authenticated(id Identity) SessionState {
	return SessionState{identity: id, authenticated: true}
}

// Identity returns the authenticated identity, if any.
func (s SessionState) Identity() (Identity, bool) {
	return s.identity, s.authenticated
}

func (s SessionState) IsAuthenticated() bool { return s.authenticated }
