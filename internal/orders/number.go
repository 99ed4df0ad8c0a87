package orders

import (
	"fmt"
	"strconv"
	"time"
)

const orderNumberPrefix = "HBT"

// SequencePrefix is the year-month scope of an order number, e.g. HBT2511.
func SequencePrefix(t time.Time) string {
	return fmt.Sprintf("%s%02d%02d", orderNumberPrefix, t.Year()%100, int(t.Month()))
}

// FormatOrderNumber pads the sequence to four digits. Sequences above 9999 are
// written in full, so the 10000th order of November 2025 is HBT251110000.
func FormatOrderNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// FallbackOrderNumber is used when the counter cannot be advanced. It is not
// guaranteed unique; the unique index and insert retry catch collisions.
func FallbackOrderNumber(t time.Time) string {
	millis := strconv.FormatInt(t.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return orderNumberPrefix + millis
}
