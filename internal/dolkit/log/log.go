package log

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"dolkit/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
	logger      *logging.LoggerCloser
)

// Setup configures the process logger once and routes slog through it.
// Later calls return the logger built by the first.
func Setup(debug bool) *logging.LoggerCloser {
	initOnce.Do(func() {
		logger = logging.NewLogger()
		if debug {
			logger.SetDebug()
		}
		logger.SetReportCaller(debug)

		slog.SetDefault(slog.New(logger.Logger))
		initialized.Store(true)
	})
	return logger
}

func Initialized() bool {
	return initialized.Load()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
