package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSize = 10
	maxBack = 5
	maxAge  = 30
)

// Options configures New.
type Options struct {
	Level   string
	File    string // optional rotated log file; empty logs to console only
	Service string
	Out     io.Writer
	NoColor bool
}

// New builds a zerolog logger writing to the console and, when File is set,
// to a lumberjack-rotated file.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}}

	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize, // megabytes before rotation
			MaxBackups: maxBack,
			MaxAge:     maxAge, // days
			Compress:   true,
		})
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Str("service", opts.Service).
		Logger().
		Level(level)

	l.Debug().
		Str("logFile", opts.File).
		Str("level", level.String()).
		Msg("logger initialized")

	return l
}
