package handler

import (
	"github.com/msomdec/contact-directory/internal/domain"
)

// UserDTO is the JSON representation of a user. The credential is never
// part of it.
type UserDTO struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Online       bool         `json:"online"`
	LastSeen     int64        `json:"lastSeen"`
	Contacts     []ContactDTO `json:"contacts"`
	BlockedUsers []int64      `json:"blockedUsers"`
}

func toUserDTO(u *domain.User) UserDTO {
	blocked := u.BlockedUsers
	if blocked == nil {
		blocked = []int64{}
	}
	return UserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Online:       u.Online,
		LastSeen:     u.LastSeen.UnixMilli(),
		Contacts:     toContactDTOs(u.Contacts),
		BlockedUsers: blocked,
	}
}

// ContactDTO is the JSON representation of a contact entry.
type ContactDTO struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"ownerId"`
	ContactID   int64  `json:"contactId"`
	ContactName string `json:"contactName"`
	AddedDate   int64  `json:"addedDate"`
}

func toContactDTO(c domain.Contact) ContactDTO {
	return ContactDTO{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		ContactID:   c.ContactID,
		ContactName: c.ContactName,
		AddedDate:   c.AddedDate.UnixMilli(),
	}
}

func toContactDTOs(contacts []domain.Contact) []ContactDTO {
	dtos := make([]ContactDTO, len(contacts))
	for i, c := range contacts {
		dtos[i] = toContactDTO(c)
	}
	return dtos
}

// SessionDTO summarizes a live session for diagnostics without exposing
// the token.
type SessionDTO struct {
	UserID   int64 `json:"userId"`
	IssuedAt int64 `json:"issuedAt"`
}
