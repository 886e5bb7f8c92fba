package codec

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu   sync.RWMutex
	pkgLogger  *zap.Logger
	loggerOnce sync.Once
)

// logger returns the package logger. It is a no-op logger by default.
func logger() *zap.Logger {
	loggerOnce.Do(func() {
		loggerMu.Lock()
		if pkgLogger == nil {
			pkgLogger = zap.NewNop()
		}
		loggerMu.Unlock()
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLogger
}

// SetLogger installs a logger for compile-time debug output. Call before
// compiling; codecs themselves never log on the encode/decode path.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	pkgLogger = l
}
