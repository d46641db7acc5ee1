package safe

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
)

func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

// RunWithLog is a wrapper that executes fn and logs any panic with full stack trace
func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", getStackTrace(3)),
			)
		}
	}()

	fn()
}

// Guard turns a panic inside fn into an error, for goroutines joined through errgroup.
func Guard(component string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered",
					slog.Any("recover", r),
					slog.String("component", component),
					slog.String("stack", getStackTrace(3)),
				)
				err = fmt.Errorf("%s: panic: %v", component, r)
			}
		}()
		return fn()
	}
}

// getStackTrace returns a formatted stack trace
// skipFrames specifies how many initial frames to skip
func getStackTrace(skipFrames int) string {
	lines := strings.Split(string(debug.Stack()), "\n")

	formatted := []string{"Stack trace:"}

	startIdx := skipFrames
	if startIdx >= len(lines) {
		return formatted[0]
	}
	for i := startIdx; i < len(lines) && i < startIdx+20; i++ { // Limit to 20 frames
		if line := strings.TrimSpace(lines[i]); line != "" {
			formatted = append(formatted, "  "+line)
		}
	}
	if len(lines) > startIdx+20 {
		formatted = append(formatted, "  ... (truncated)")
	}

	return strings.Join(formatted, "\n")
}
