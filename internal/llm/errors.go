package llm

import (
	"errors"
	"strings"
)

// ErrQuotaExceeded is returned when the provider refuses a request because the
// account ran out of credits.
var ErrQuotaExceeded = errors.New("model provider quota exceeded")

var quotaMarkers = []string{
	"exceeded your monthly included credits",
	"insufficient_quota",
	"RESOURCE_EXHAUSTED",
	"Arrearage",
}

// IsQuotaExceeded reports whether err signals exhausted provider credits.
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	return isQuotaMessage(err.Error())
}

func isQuotaMessage(msg string) bool {
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
