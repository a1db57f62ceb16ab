package gameserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Action identifies a client request type carried in a datagram
// envelope.
type Action string

// Recognized wire actions.
const (
	// ActionEnter registers the sender as a player.
	ActionEnter Action = "enter"
	// ActionJoin enqueues the sender for matchmaking.
	ActionJoin Action = "join"
	// ActionLeave is reserved; currently a no-op.
	ActionLeave Action = "leave"
	// ActionMove is reserved; currently a no-op.
	ActionMove Action = "move"
)

// Envelope is the decoded form of one datagram payload. Only Action is
// consumed today; action-specific fields are ignored until the
// reserved actions gain behavior.
type Envelope struct {
	Action Action `json:"action"`
}

// ErrNotObject means the payload decoded as valid JSON but was not an
// object.
var ErrNotObject = errors.New("payload is not a JSON object")

// ParseEnvelope decodes one datagram payload. Invalid UTF-8 sequences
// are replaced rather than rejected; anything that does not parse as a
// JSON object is an error. A payload whose action field is missing or
// not a string yields an empty Action and no error.
func ParseEnvelope(payload []byte) (Envelope, error) {
	text := strings.ToValidUTF8(string(payload), string(utf8.RuneError))

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if obj == nil {
		return Envelope{}, ErrNotObject
	}

	action, _ := obj["action"].(string)
	return Envelope{Action: Action(action)}, nil
}
