// Package logger holds the process-wide sugared zap logger. It discards
// everything until SetLogger is called.
package logger

import (
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeConsole = "console"
	ModeFile    = "file"
)

type Options struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
	Name  string `yaml:"name"`
}

type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Sync() error
}

var logging Logger

func init() {
	logging = zap.NewNop().Sugar()
}

// NewLogger builds a logger from o. An unknown level falls back to info.
func NewLogger(o *Options) (Logger, error) {
	level := zapcore.InfoLevel
	if o.Level != "" {
		l, err := zapcore.ParseLevel(o.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	var logger *zap.Logger
	switch o.Mode {
	case ModeFile:
		if o.Path == "" {
			o.Path = "./logs"
		}
		if o.Name == "" {
			path, _ := os.Executable()
			_, exec := filepath.Split(path)
			o.Name = exec
		}
		fileName := filepath.Join(o.Path, o.Name+".log")
		syncWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   fileName,
			MaxSize:    100,
			MaxBackups: 10,
			LocalTime:  true,
			Compress:   true,
		})
		encoder := zap.NewProductionEncoderConfig()
		encoder.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), syncWriter, zap.NewAtomicLevelAt(level))
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	default:
		config := zap.NewDevelopmentConfig()
		config.DisableStacktrace = true
		config.Level = zap.NewAtomicLevelAt(level)
		var err error
		logger, err = config.Build(zap.AddCallerSkip(1))
		if err != nil {
			return nil, err
		}
	}

	return logger.Sugar(), nil
}

func SetLogger(logger Logger) {
	logging = logger
}

func Sync() error {
	return logging.Sync()
}

func Debug(args ...interface{}) {
	logging.Debug(args...)
}
func Debugf(msg string, args ...interface{}) {
	logging.Debugf(msg, args...)
}
func Debugw(msg string, keysAndValues ...interface{}) {
	logging.Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	logging.Info(args...)
}
func Infof(msg string, args ...interface{}) {
	logging.Infof(msg, args...)
}
func Infow(msg string, keysAndValues ...interface{}) {
	logging.Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	logging.Warn(args...)
}
func Warnf(msg string, args ...interface{}) {
	logging.Warnf(msg, args...)
}
func Warnw(msg string, keysAndValues ...interface{}) {
	logging.Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	logging.Error(args...)
}
func Errorf(msg string, args ...interface{}) {
	logging.Errorf(msg, args...)
}
func Errorw(msg string, keysAndValues ...interface{}) {
	logging.Errorw(msg, keysAndValues...)
}
