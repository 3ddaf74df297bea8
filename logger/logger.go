package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide logger
type Options struct {
	Level  string // logrus level name, defaults to info
	Format string // "json" or "text"
	Output string // "stdout", "file" or "both"
	Path   string // directory for rotated log files
}

var (
	mu   sync.Mutex
	base *logrus.Logger
	file *lumberjack.Logger
)

// Init builds the process-wide logger. Calling it again replaces the previous one.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var writers []io.Writer
	if opts.Output == "file" || opts.Output == "both" {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		closeFileLocked()
		file = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Path, "app.log"),
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		writers = append(writers, file)
	}
	if opts.Output != "file" {
		writers = append(writers, os.Stdout)
	}
	l.SetOutput(io.MultiWriter(writers...))

	base = l
	return nil
}

// Get returns the process-wide logger, creating a stdout logger if Init was never called
func Get() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		base = logrus.New()
		base.SetOutput(os.Stdout)
	}
	return base
}

// Set replaces the process-wide logger (primarily for testing)
func Set(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// Close flushes and closes the rotating log file, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFileLocked()
}

func closeFileLocked() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}
