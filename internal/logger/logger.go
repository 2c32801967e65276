package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level and the optional rotating log file.
type Config struct {
	Level      string // debug, info, warn, error
	File       string // empty means console only
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

var (
	mu  sync.RWMutex
	std = logrus.New()
)

const timestampFormat = "06-01-02 15:04:05"

// Init configures the process logger. The global logrus logger is pointed at
// the same output so packages logging through logrus directly end up in the
// same file.
func Init(cfg Config) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
	})

	writers := []io.Writer{os.Stdout}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, errors.Wrap(err, "create log dir")
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}
	out := io.MultiWriter(writers...)
	l.SetOutput(out)

	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(l.Formatter)

	mu.Lock()
	std = l
	mu.Unlock()
	return l, nil
}

// L returns the process logger.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// Component returns an entry tagged with a component name.
func Component(name string) *logrus.Entry {
	return L().WithField("component", name)
}
