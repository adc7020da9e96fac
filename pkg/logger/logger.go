package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarn
	LogInfo
	LogDebug
)

// String 返回日志级别字符串
func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarn:
		return "WARN"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别字符串（不区分大小写），未知值返回错误
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogError, nil
	case "warn", "warning":
		return LogWarn, nil
	case "", "info":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	default:
		return LogInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogError:
		return zapcore.ErrorLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(l zapcore.Level) LogLevel {
	switch {
	case l >= zapcore.ErrorLevel:
		return LogError
	case l == zapcore.WarnLevel:
		return LogWarn
	case l == zapcore.DebugLevel:
		return LogDebug
	default:
		return LogInfo
	}
}

// Logger 日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// Config 日志配置
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json 或 text
	// File 非空时写入文件并按大小轮转
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output 未设置 File 时的输出，默认 os.Stdout
	Output io.Writer
}

// DefaultLogger 基于 zap 的默认日志实现
type DefaultLogger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// NewDefaultLogger 创建输出到标准输出的默认日志
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewDefaultLoggerWithOutput(level, os.Stdout)
}

// NewDefaultLoggerWithOutput 创建带输出的默认日志（文本格式）
func NewDefaultLoggerWithOutput(level LogLevel, output io.Writer) *DefaultLogger {
	return newLogger(level, "text", zapcore.AddSync(output))
}

// New 按配置创建日志
func New(cfg Config) (*DefaultLogger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	sink := zapcore.AddSync(output)
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}
	return newLogger(level, cfg.Format, sink), nil
}

func newLogger(level LogLevel, format string, sink zapcore.WriteSyncer) *DefaultLogger {
	atomic := zap.NewAtomicLevelAt(level.zapLevel())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, sink, atomic)
	return &DefaultLogger{
		level: atomic,
		sugar: zap.New(core).Sugar(),
	}
}

// SetLevel 设置日志级别
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel 获取日志级别
func (l *DefaultLogger) GetLevel() LogLevel {
	return fromZapLevel(l.level.Level())
}

// Debug 输出 DEBUG 级别日志
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 输出 INFO 级别日志
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 输出 WARN 级别日志
func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 输出 ERROR 级别日志
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync 刷新缓冲
func (l *DefaultLogger) Sync() error {
	return l.sugar.Sync()
}

// NoOpLogger 空日志实现（用于禁用日志）
type NoOpLogger struct{}

// NewNoOpLogger 创建空日志
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(format string, args ...interface{}) {}
func (l *NoOpLogger) Info(format string, args ...interface{})  {}
func (l *NoOpLogger) Warn(format string, args ...interface{})  {}
func (l *NoOpLogger) Error(format string, args ...interface{}) {}
func (l *NoOpLogger) SetLevel(level LogLevel)                  {}
func (l *NoOpLogger) GetLevel() LogLevel                       { return LogInfo }
