package domain

import "time"

// Session is a live bearer token and the user it authenticates.
type Session struct {
	Token    string
	UserID   int64
	IssuedAt time.Time
}
