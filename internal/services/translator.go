package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/seekhq/seek/internal/engine"
	"github.com/seekhq/seek/internal/utils"
)

// Frame is one newline-delimited JSON object on the streaming surface.
type Frame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

const (
	FrameInit       = "init"
	FrameMessage    = "message"
	FrameSources    = "sources"
	FrameMessageEnd = "messageEnd"
	FrameError      = "error"
)

// translate forwards events to the frame writer in arrival order until a
// terminal event. A cancelled context detaches delivery: nothing more is
// written, but the engine and the persistence path keep running.
func (s *chatService) translate(ctx context.Context, r *run, w FrameWriter) error {
	const op = "ChatService.translate"

	if err := w.WriteFrame(Frame{Type: FrameInit, MessageID: r.aiMessageID}); err != nil {
		s.detach(r.delivery)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			s.detach(r.delivery)
			return nil
		case ev, ok := <-r.delivery:
			// The select may race a concurrent cancel; never start a new
			// frame once cancellation has been observed.
			if ctx.Err() != nil {
				s.detach(r.delivery)
				return nil
			}
			if !ok {
				return utils.E(utils.CodeInternal, op, "event stream ended without a terminal event", nil)
			}

			switch ev.Type {
			case engine.EventResponse:
				if err := w.WriteFrame(Frame{Type: FrameMessage, Data: ev.Delta, MessageID: r.aiMessageID}); err != nil {
					s.detach(r.delivery)
					return nil
				}
			case engine.EventSources:
				if err := w.WriteFrame(Frame{Type: FrameSources, Data: ev.Sources, MessageID: r.aiMessageID}); err != nil {
					s.detach(r.delivery)
					return nil
				}
			case engine.EventEnd:
				_ = w.WriteFrame(Frame{Type: FrameMessageEnd, MessageID: r.aiMessageID})
				return nil
			case engine.EventError:
				msg := "answer engine failed"
				if ev.Err != nil {
					msg = ev.Err.Error()
				}
				_ = w.WriteFrame(Frame{Type: FrameError, Data: msg})
				return utils.E(utils.CodeUpstream, op, "answer engine failed", ev.Err)
			}
		}
	}
}

// detach drains the delivery subscription in the background so the
// broadcaster can finish feeding the persistence subscription.
func (s *chatService) detach(delivery <-chan engine.Event) {
	go func() {
		for range delivery {
		}
	}()
}

// NDJSONWriter writes frames as newline-delimited JSON, flushing after
// every frame so the client sees deltas immediately.
type NDJSONWriter struct {
	mu sync.Mutex
	w  io.Writer
	fl http.Flusher
}

func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	nw := &NDJSONWriter{w: w}
	if fl, ok := w.(http.Flusher); ok {
		nw.fl = fl
	}
	return nw
}

func (n *NDJSONWriter) WriteFrame(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := n.w.Write(append(b, '\n')); err != nil {
		return err
	}
	if n.fl != nil {
		n.fl.Flush()
	}
	return nil
}
