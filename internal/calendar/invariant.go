package calendar

import (
	"fmt"
	"log/slog"
)

// violated reports a broken partition invariant. Builds tagged plannerdebug
// panic; regular builds log and let the caller degrade.
func violated(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if strictInvariants {
		panic("calendar: " + msg)
	}
	slog.Error("calendar invariant violated", "detail", msg)
}
