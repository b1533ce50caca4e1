package sheetbuf

import "github.com/rs/zerolog"

// logger is disabled by default; host applications opt in via SetLogger.
var logger = zerolog.Nop()

// SetLogger routes the library's diagnostic events (sheet lifecycle,
// codec layout decisions) to the given logger.
func SetLogger(l zerolog.Logger) {
	logger = l
}
