package events

import (
	"encoding/json"
	"time"
)

// Event types
const (
	UserCreated                = "user.created"
	UserUpdated                = "user.updated"
	UserDeleted                = "user.deleted"
	UserPasswordResetRequested = "user.password_reset_requested"
)

const UserEventsStream = "user.events"

type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserDeletedEvent struct {
	UserID           string `json:"userId"`
	CellarsDeleted   int64  `json:"cellarsDeleted"`
	ListsDeleted     int64  `json:"listsDeleted"`
	LineItemsDeleted int64  `json:"lineItemsDeleted"`
}

// PasswordResetRequestedEvent carries everything the mailer needs. The link
// embeds the temporary password, so it must not be logged.
type PasswordResetRequestedEvent struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ResetLink string `json:"resetLink"`
}
