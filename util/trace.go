package util

import (
	"time"

	"go.uber.org/zap"
)

// Trace logs the time spent between the call and the returned func:
//
//	defer util.Trace("generate")()
func Trace(msg string) func() {
	start := time.Now()
	return func() {
		Logger.Info(msg, zap.Duration("cost", time.Since(start)))
	}
}
