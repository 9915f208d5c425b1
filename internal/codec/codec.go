// Package codec defines the JSON wire shape of relay events: what clients
// send, what the relay sends back, and how a frame maps onto a handler.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type EventType string

const (
	TypeJoin       EventType = "join"
	TypeLeave      EventType = "leave"
	TypeMessage    EventType = "message"
	TypeCreateRoom EventType = "create_room"
	TypeError      EventType = "error"
	TypeSystem     EventType = "system"
)

// TimestampLayout matches what browsers produce with Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrMalformed = errors.New("malformed event")

// Inbound is a decoded client event. Which fields matter depends on Type.
type Inbound struct {
	Type      EventType `json:"type"`
	Room      string    `json:"room"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Timestamp string    `json:"timestamp"`
	RoomName  string    `json:"roomName"`
}

// Decode parses one frame. Anything that is not a JSON object with a
// known inbound type is ErrMalformed.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch in.Type {
	case TypeJoin, TypeLeave, TypeMessage, TypeCreateRoom:
		return in, nil
	case "":
		return Inbound{}, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return Inbound{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, in.Type)
	}
}

// Encode serialises an outbound event.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
