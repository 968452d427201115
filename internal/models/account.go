package models

import "github.com/google/uuid"

type AccountKind string

const (
	AccountKindGuest      AccountKind = "guest"
	AccountKindRegistered AccountKind = "registered"
)

// Account is the identity context a pipeline run executes under.
// Guest accounts may identify photos but never persist observations.
type Account struct {
	Kind  AccountKind `json:"kind"`
	ID    string      `json:"id"`
	Email string      `json:"email,omitempty"`
}

func NewGuestAccount() Account {
	return Account{Kind: AccountKindGuest, ID: uuid.New().String()}
}

func NewRegisteredAccount(id, email string) Account {
	return Account{Kind: AccountKindRegistered, ID: id, Email: email}
}

func (a Account) IsGuest() bool {
	return a.Kind != AccountKindRegistered
}

// Identifier is the label written into marker records.
func (a Account) Identifier() string {
	if a.IsGuest() || a.Email == "" {
		return "guest"
	}
	return a.Email
}
