package event

import "time"

type Type string

const (
	TypeWineryCreated Type = "winery_created"
)

// Channel groups event types that subscribers usually want together.
type Channel string

const (
	ChannelWinery Channel = "winery"
)

var typeToChannel = map[Type]Channel{
	TypeWineryCreated: ChannelWinery,
}

// ChannelFor returns the channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Subscribers fetch fresh state from the repository if they need it.
type Event struct {
	Type      Type      `json:"type"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID string) Event {
	return Event{
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
