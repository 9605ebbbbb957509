// Package view renders the HTML presence board.
package view

import "github.com/msomdec/contact-directory/internal/domain"

// BoardID is the element id the live stream patches.
const BoardID = "presence-board"

// Summary holds the counters shown above the board.
type Summary struct {
	Users    int
	Online   int
	Sessions int
}

func presenceLabel(u domain.User) string {
	if u.Online {
		return "online"
	}
	return "offline"
}

func streamAction(streamURL string) string {
	return "@get('" + streamURL + "')"
}
