package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DatasetUpdatedMessage announces that the spending data behind a backend
// has changed and cached copies are stale.
type DatasetUpdatedMessage struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetUpdatedMessage creates a message stamped with the current time
func NewDatasetUpdatedMessage(source string) *DatasetUpdatedMessage {
	return &DatasetUpdatedMessage{
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetUpdatedMessageFromJSON parses a message, rejecting bodies without a source.
func DatasetUpdatedMessageFromJSON(data []byte) (*DatasetUpdatedMessage, error) {
	var msg DatasetUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Source) == "" {
		return nil, errors.New("dataset update message has no source")
	}
	return &msg, nil
}
