package domain

import "time"

// Session is one outstanding authentication session, keyed by client
// IP. SignedToken is the JWT handed out by /auth; its uid claim must
// match the uid of every request token presented from that IP. One
// session per IP, last writer wins.
type Session struct {
	IP          string
	SignedToken string
	UpdatedAt   time.Time
}
