package sql

import (
	"time"

	"github.com/kasuganosora/gridsource/pkg/logger"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter forwards gorm log lines to the project logger
type gormWriter struct {
	log logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug("[SQL] "+format, args...)
}

// NewGormLogger adapts a logger.Logger for gorm; only slow queries and
// errors are reported
func NewGormLogger(l logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	return gormlogger.New(gormWriter{log: l}, gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
