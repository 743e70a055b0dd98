package server

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/service/bargain"
	"duoduo-bargain/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// sseWriter adapts an HTTP response into a bargain event sink. Each event is
// written as one `data: {json}` frame and flushed immediately so the client
// sees turns as they happen, not when the negotiation ends.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, domain.NewError(errcodes.StreamingNotSupported, "response writer does not support streaming")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Disable proxy buffering, otherwise frames arrive in one burst.
	header.Set("X-Accel-Buffering", "no")

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{
		w:       w,
		flusher: flusher,
	}, nil
}

func (s *sseWriter) Send(ctx context.Context, event bargain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(newStreamEvent(event))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	s.flusher.Flush()

	return nil
}
