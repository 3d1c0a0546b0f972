package live

import (
	"encoding/json"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

// Typed adapts a handler of T into a Handler. Frames that are valid JSON but
// do not decode into T are logged and skipped.
func Typed[T any](logger log.Logger, handler func(T)) Handler {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return func(raw json.RawMessage) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn(map[string]any{"error": err.Error()}, "Skipping undecodable live frame")
			return
		}
		handler(v)
	}
}

// QueryLog adapts frames of the live query log stream.
func QueryLog(logger log.Logger, handler func(domain.QueryLogEvent)) Handler {
	return Typed(logger, handler)
}

// Pulse adapts frames of the pulse stream.
func Pulse(logger log.Logger, handler func(domain.PulseEvent)) Handler {
	return Typed(logger, handler)
}
