package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler returns a handler that ships records to a Graylog GELF UDP
// input. The returned writer must be closed by the caller.
func NewGelfHandler(address, level string) (slog.Handler, *gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("graylog writer %s: %w", address, err)
	}
	w.Facility = ServiceName
	return slog.NewTextHandler(w, handlerOptions(level)), w, nil
}
