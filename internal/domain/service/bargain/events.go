package bargain

import (
	"context"

	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
)

// Event is one of the four frame kinds emitted during a negotiation run.
// The set is sealed; the transport adapter switches over the concrete types.
type Event interface {
	isEvent()
}

type MessageEvent struct {
	Message entity.BargainMessage
}

type StatusEvent struct {
	Status value.BargainStatus
}

type ErrorEvent struct {
	Reason string
}

type CompleteEvent struct {
	Status     value.BargainStatus
	FinalPrice int
}

func (MessageEvent) isEvent()  {}
func (StatusEvent) isEvent()   {}
func (ErrorEvent) isEvent()    {}
func (CompleteEvent) isEvent() {}

// EventSink receives run events in emission order. Implementations must not
// reorder or retract events; after an ErrorEvent or CompleteEvent no further
// events are sent.
type EventSink interface {
	Send(ctx context.Context, event Event) error
}
