// Package debug routes the component debug hooks to a logger.
package debug

import (
	"log"

	"github.com/recera/solarview/pkg/dispatch"
	"github.com/recera/solarview/pkg/minimap"
	"github.com/recera/solarview/pkg/reactive"
	"github.com/recera/solarview/pkg/viewport"
)

// EnableLogging enables debug logging for the viewport, mini-map, dispatcher and reactive
// packages. A nil logger uses the standard logger.
func EnableLogging(l *log.Logger) {
	if l == nil {
		l = log.Default()
	}
	logFn := func(args ...interface{}) {
		l.Println(args...)
	}

	viewport.SetDebugLog(logFn)
	minimap.SetDebugLog(logFn)
	dispatch.SetDebugLog(logFn)
	reactive.SetDebugLog(logFn)
}

// DisableLogging removes every hook installed by EnableLogging
func DisableLogging() {
	viewport.SetDebugLog(nil)
	minimap.SetDebugLog(nil)
	dispatch.SetDebugLog(nil)
	reactive.SetDebugLog(nil)
}

// Log logs a message through the standard logger
func Log(args ...interface{}) {
	log.Println(args...)
}

// Logf logs a formatted message through the standard logger
func Logf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
