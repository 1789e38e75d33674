package motion

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var logger atomic.Pointer[log.Logger]

func init() {
	logger.Store(log.NewWithOptions(os.Stderr, log.Options{Prefix: "motion"}))
}

// Logger returns the logger used to report recovered callback panics.
func Logger() *log.Logger {
	return logger.Load()
}

// SetLogger replaces the package logger. A nil logger is ignored.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// Safe runs fn and recovers a panic, logging it under source.
func Safe(source string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("callback panicked", "source", source, "panic", r)
		}
	}()
	fn()
}
