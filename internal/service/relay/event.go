package relay

import "github.com/zhouzirui/sphere-relay/backend/internal/model/message"

// Wire event types.
const (
	EventUserCount    = "userCount"
	EventSyncMessages = "syncMessages"
	EventNewMessage   = "newMessage"
)

// Event is one outbound frame. Transports encode it as {"type": ..., "data": ...}.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// CountPayload carries the viewer count.
type CountPayload struct {
	Count int `json:"count"`
}

// TextPayload is the live relay payload: the submitted text only.
type TextPayload struct {
	Text string `json:"text"`
}

func countEvent(n int) Event {
	return Event{Type: EventUserCount, Data: CountPayload{Count: n}}
}

func syncEvent(msgs []message.Message) Event {
	return Event{Type: EventSyncMessages, Data: msgs}
}

func textEvent(text string) Event {
	return Event{Type: EventNewMessage, Data: TextPayload{Text: text}}
}
