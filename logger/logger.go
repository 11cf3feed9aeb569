package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once     sync.Once
	instance zerolog.Logger
)

// Options controls console verbosity and the rotated log file
type Options struct {
	Debug      bool
	File       string // empty disables file output
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// InitLogger initializes the logger with configurations for console and file output
func InitLogger(opts Options) zerolog.Logger {
	once.Do(func() {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}

		writers := []io.Writer{consoleWriter}
		if opts.File != "" {
			// lumberjack handles rotation and removes files older than MaxAge
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxAge:     opts.MaxAgeDays,
				MaxBackups: opts.MaxBackups,
				Compress:   true,
			})
		}
		multiWriter := zerolog.MultiLevelWriter(writers...)

		level := zerolog.InfoLevel
		if opts.Debug {
			level = zerolog.DebugLevel
			// Add caller for detailed troubleshooting
			instance = zerolog.New(multiWriter).
				Level(level).
				With().
				Timestamp().
				Caller().
				Logger()
		} else {
			instance = zerolog.New(multiWriter).
				Level(level).
				With().
				Timestamp().
				Logger()
		}
	})

	instance.Debug().
		Bool("debug_mode", opts.Debug).
		Str("file", opts.File).
		Msg("Logger initialized")
	return instance
}

// GetLogger returns the logger instance. Before InitLogger runs it is a
// disabled logger, so packages can log unconditionally.
func GetLogger() zerolog.Logger {
	return instance
}

// Helper functions for consistent logging
func Info() *zerolog.Event {
	return instance.Info()
}

func Error() *zerolog.Event {
	return instance.Error()
}

func Debug() *zerolog.Event {
	return instance.Debug()
}

func Warn() *zerolog.Event {
	return instance.Warn()
}
