package tools

import (
	"context"
	"fmt"
	"time"
)

// NewClock returns a tool reporting the current date and time. The now
// func is injectable so tests get a fixed instant.
func NewClock(now func() time.Time) *Tool {
	if now == nil {
		now = time.Now
	}
	return &Tool{
		Name:        "clock",
		Description: "Get the current date and time. Use for any question about today's date or the time.",
		Schema: ToolSchema{
			Properties: map[string]Property{
				"timezone": {Type: "string", Description: "IANA timezone name, e.g. \"Europe/Berlin\". Defaults to local time."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			t := now()
			if tz, ok := StringArg(args, "timezone"); ok && tz != "" {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q", tz)
				}
				t = t.In(loc)
			}
			return t.Format("Monday, January 2, 2006 at 15:04:05 MST"), nil
		},
	}
}
