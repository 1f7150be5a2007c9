package logger

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, encoding and optional file rotation.
type Config struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"` // json or console
	File   FileConfig `yaml:"file"`
}

// FileConfig enables rotating file output. Leave Filename empty to log to stdout.
type FileConfig struct {
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxDays    int    `yaml:"max_days"`
	MaxBackups int    `yaml:"max_backups"`
}

const (
	DefaultLevel   = "info"
	DefaultFormat  = "console"
	DefaultMaxSize = 100
)

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init builds the process-wide logger from cfg and installs it.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	global.Store(l)
	zap.ReplaceGlobals(l)
	return nil
}

// New builds a logger without installing it.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	lvl := cfg.Level
	if lvl == "" {
		lvl = DefaultLevel
	}
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", lvl, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", DefaultFormat:
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
	if cfg.File.Filename != "" {
		maxSize := cfg.File.MaxSize
		if maxSize <= 0 {
			maxSize = DefaultMaxSize
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    maxSize,
			MaxAge:     cfg.File.MaxDays,
			MaxBackups: cfg.File.MaxBackups,
		})
	}

	core := zapcore.NewCore(enc, sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// Replace installs l as the process-wide logger. Tests use it with zaptest or observer cores.
func Replace(l *zap.Logger) {
	global.Store(l)
}

type ctxLogKeyType struct{}

var ctxLogKey = ctxLogKeyType{}

// BgLogger returns the process-wide logger.
func BgLogger() *zap.Logger {
	return global.Load()
}

// Logger gets a contextual logger from the current context.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxLogKey).(*zap.Logger); ok {
		return l
	}
	return BgLogger()
}

// WithKeyValue attaches key/value to the context logger.
func WithKeyValue(ctx context.Context, key, value string) context.Context {
	return context.WithValue(ctx, ctxLogKey, Logger(ctx).With(zap.String(key, value)))
}
