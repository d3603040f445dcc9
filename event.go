package codexflow

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta. An empty Delta is a
// placeholder emitted ahead of tool calls so consumers always see text.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventToolCallPartial carries one fragment of a streamed tool call. Index
// identifies the call within the response; ID and Name usually arrive only
// on the first fragment, Arguments is a partial JSON string.
type EventToolCallPartial struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

func (EventToolCallPartial) event() {}

// EventUsage reports token usage and estimated cost. It is emitted at most
// once per response, after all content events. Cache counts are nil unless
// the upstream reported a positive value.
type EventUsage struct {
	InputTokens      int
	OutputTokens     int
	CacheWriteTokens *int
	CacheReadTokens  *int
	TotalCost        float64
}

func (EventUsage) event() {}

// Usage converts the event to a Usage value, treating absent cache counts
// as zero.
func (e EventUsage) Usage() Usage {
	u := Usage{InputTokens: e.InputTokens, OutputTokens: e.OutputTokens, TotalCost: e.TotalCost}
	if e.CacheWriteTokens != nil {
		u.CacheWriteTokens = *e.CacheWriteTokens
	}
	if e.CacheReadTokens != nil {
		u.CacheReadTokens = *e.CacheReadTokens
	}
	return u
}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventToolCallPartial{}
	_ Event = EventUsage{}
)
