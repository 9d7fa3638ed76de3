package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeKind names the write that produced a ChangeMessage.
type ChangeKind string

const (
	ExpenseCreated  ChangeKind = "expense.created"
	ExpenseDeleted  ChangeKind = "expense.deleted"
	CategoryCreated ChangeKind = "category.created"
	CategoryDeleted ChangeKind = "category.deleted"
	GoalUpserted    ChangeKind = "goal.upserted"
)

// ChangeMessage announces that a user's records changed.
// Consumers reload the full snapshot; the message carries no record data.
type ChangeMessage struct {
	UserID    string     `json:"user_id"`
	Kind      ChangeKind `json:"kind"`
	EntityID  string     `json:"entity_id"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewChangeMessage(userID string, kind ChangeKind, entityID string) *ChangeMessage {
	return &ChangeMessage{
		UserID:    userID,
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("change message without user_id")
	}
	return &msg, nil
}
