package logger

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const serviceName = "linxify"

// Version is stamped at build time with -ldflags "-X .../logger.Version=...".
var Version = "dev"

// Config drives how the zap logger is built.
type Config struct {
	Development bool
	Level       string
	// Encoding is "json" or "console". Empty picks console in development.
	Encoding string
}

var (
	mu     sync.RWMutex
	global *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	colors = shouldColorize()
)

// Init builds the process logger and installs it globally. Its level can be
// changed at runtime through LevelHandler.
func Init(cfg Config) (*zap.Logger, error) {
	lvl, err := parseLevel(cfg.Level, cfg.Development)
	if err != nil {
		return nil, err
	}
	level.SetLevel(lvl)

	l, err := build(cfg, level)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		_ = global.Sync()
	}
	global = l
	return global, nil
}

// MustInit panics if the logger cannot be built.
func MustInit(cfg Config) *zap.Logger {
	l, err := Init(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

// L returns the global logger, or a no-op logger before Init.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return zap.NewNop()
	}
	return global
}

// Named returns a child of the global logger scoped to a component.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// LevelHandler serves GET/PUT of the global log level as JSON, e.g.
// curl -X PUT -d '{"level":"debug"}'.
func LevelHandler() http.Handler {
	return level
}

// Sync flushes any buffered log entries on the global logger.
func Sync() error {
	mu.RLock()
	l := global
	mu.RUnlock()

	if l == nil {
		return nil
	}

	if err := l.Sync(); err != nil {
		if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, os.ErrInvalid) {
			return nil
		}
		return err
	}
	return nil
}

// New returns a standalone zap.Logger configured according to cfg.
func New(cfg Config) (*zap.Logger, error) {
	lvl, err := parseLevel(cfg.Level, cfg.Development)
	if err != nil {
		return nil, err
	}
	return build(cfg, zap.NewAtomicLevelAt(lvl))
}

func parseLevel(raw string, development bool) (zapcore.Level, error) {
	if raw == "" {
		if development {
			return zapcore.DebugLevel, nil
		}
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return lvl, fmt.Errorf("logger: invalid level %q: %w", raw, err)
	}
	return lvl, nil
}

func build(cfg Config, lvl zap.AtomicLevel) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	zapCfg.Level = lvl
	zapCfg.EncoderConfig = buildEncoderConfig(zapCfg.Encoding)
	zapCfg.InitialFields = map[string]interface{}{
		"service": serviceName,
		"version": Version,
	}

	return zapCfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func buildEncoderConfig(encoding string) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stack",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeDuration:   zapcore.MillisDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " | ",
	}

	if encoding == "console" {
		cfg.EncodeLevel = prettyLevelEncoder
		cfg.EncodeTime = prettyTimeEncoder
		cfg.EncodeDuration = zapcore.StringDurationEncoder
	} else {
		cfg.ConsoleSeparator = " "
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}

	return cfg
}

func prettyTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}

func prettyLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	label := fmt.Sprintf("%-5s", l.CapitalString())
	if colors {
		enc.AppendString(levelColor(l) + label + colorReset)
		return
	}
	enc.AppendString(label)
}

func shouldColorize() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorCyan   = "\x1b[36m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

func levelColor(l zapcore.Level) string {
	switch {
	case l <= zapcore.DebugLevel:
		return colorCyan
	case l == zapcore.InfoLevel:
		return colorGreen
	case l == zapcore.WarnLevel:
		return colorYellow
	default:
		return colorRed
	}
}
