package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns a human readable order number of the form
// ORD-YYYYMMDD-XXXXXXXX.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}
