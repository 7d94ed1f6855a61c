package amqp

import (
	"encoding/json"
	"time"

	"scadenze/internal/core"
)

// RefreshMessage asks the worker to re-fetch a data set into the shared cache.
type RefreshMessage struct {
	Name        core.DataSetName `json:"name"`
	RequestedAt time.Time        `json:"requested_at"`
}

// NewRefreshMessage creates a refresh request stamped now
func NewRefreshMessage(name core.DataSetName) *RefreshMessage {
	return &RefreshMessage{
		Name:        name,
		RequestedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes a message and rejects unusable names
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Name.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
