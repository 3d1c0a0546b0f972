package display

import (
	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/services/notify"
)

// Log sends notifications to the structured logger instead of a terminal,
// for non-interactive runs.
type Log struct {
	logger log.Logger
}

func NewLog(logger log.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Show(id, message string) {
	l.logger.Warn(map[string]any{"slot": id}, message)
}

var _ notify.Display = (*Log)(nil)
