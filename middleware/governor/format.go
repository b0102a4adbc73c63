// utilitário pequeno para formatação rápida/consistente de valores numéricos em headers.

package governor

import (
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// formatRetryAfter arredonda para cima: Retry-After=0 faria o cliente reenviar na hora.
func formatRetryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return formatInt(secs)
}
