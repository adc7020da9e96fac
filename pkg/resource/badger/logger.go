package badger

import (
	"strings"

	"github.com/kasuganosora/gridsource/pkg/logger"
)

// LogAdapter adapts logger.Logger to badger.Logger
// Badger's info output is chatty, so it is demoted to debug.
type LogAdapter struct {
	log logger.Logger
}

// NewLogger wraps a logger for use as DataSourceConfig.Logger
func NewLogger(l logger.Logger) *LogAdapter {
	return &LogAdapter{log: l}
}

func (b *LogAdapter) Errorf(format string, args ...interface{}) {
	b.log.Error("[BADGER] "+strings.TrimRight(format, "\n"), args...)
}

func (b *LogAdapter) Warningf(format string, args ...interface{}) {
	b.log.Warn("[BADGER] "+strings.TrimRight(format, "\n"), args...)
}

func (b *LogAdapter) Infof(format string, args ...interface{}) {
	b.log.Debug("[BADGER] "+strings.TrimRight(format, "\n"), args...)
}

func (b *LogAdapter) Debugf(format string, args ...interface{}) {
	b.log.Debug("[BADGER] "+strings.TrimRight(format, "\n"), args...)
}
