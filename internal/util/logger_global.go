package util

import (
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger LoggerInterface = NewLogger(LevelOff)
)

// SetLogger replaces the process-wide logger and closes the previous one. A
// nil logger silences logging.
func SetLogger(l LoggerInterface) {
	if l == nil {
		l = NewLogger(LevelOff)
	}

	globalMu.Lock()
	previous := globalLogger
	globalLogger = l
	globalMu.Unlock()

	if previous != nil && previous != l {
		if err := previous.Close(); err != nil {
			l.Warn("failed to close previous logger", F("error", err.Error()))
		}
	}
}

// GetLogger returns the process-wide logger.
func GetLogger() LoggerInterface {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func LogDebug(msg string, fields ...Field) {
	GetLogger().Debug(msg, fields...)
}

func LogDebugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func LogInfo(msg string, fields ...Field) {
	GetLogger().Info(msg, fields...)
}

func LogWarn(msg string, fields ...Field) {
	GetLogger().Warn(msg, fields...)
}

func LogError(msg string, fields ...Field) {
	GetLogger().Error(msg, fields...)
}
