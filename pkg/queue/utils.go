package queue

import (
	"fmt"
	"strings"
)

// qualifiedStructName is the default task name for a payload: its Go type
// without pointer markers, e.g. "job.Job".
func qualifiedStructName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
