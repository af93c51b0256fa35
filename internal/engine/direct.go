package engine

import "context"

// Direct answers by streaming the resolved chat model as-is, without any
// retrieval step. It keeps the pipeline runnable end to end and doubles
// as the fallback focus mode.
type Direct struct{}

func NewDirect() *Direct { return &Direct{} }

func (*Direct) SearchAndAnswer(ctx context.Context, q Query) (<-chan Event, error) {
	events := make(chan Event, 16)

	chunks, errs := q.Chat.Stream(ctx, q.SystemInstructions, q.History, q.Text)

	go func() {
		defer close(events)

		for chunk := range chunks {
			events <- Event{Type: EventResponse, Delta: chunk}
		}
		if err := <-errs; err != nil {
			events <- Event{Type: EventError, Err: err}
			return
		}
		events <- Event{Type: EventEnd}
	}()

	return events, nil
}
