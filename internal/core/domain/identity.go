package domain

// SessionIdentity resolves the owning-user identifier of the configured
// session. It exists only to validate the gateway's trust boundary; the
// engine does not manage authentication.
type SessionIdentity interface {
	CurrentUserID() (string, error)
}
