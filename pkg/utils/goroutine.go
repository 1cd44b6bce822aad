package utils

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// GoSafe runs fn in a new goroutine and recovers from any panic it raises.
func GoSafe(fn func()) {
	go func() {
		defer Recover("goroutine")
		fn()
	}()
}

// Recover logs a recovered panic through the global zap logger. It must be deferred directly.
func Recover(scope string) {
	if r := recover(); r != nil {
		zap.L().Error("Recovered from panic",
			zap.String("scope", scope),
			zap.String("panic", fmt.Sprint(r)),
			zap.ByteString("stack", debug.Stack()),
		)
	}
}

// ShouldContinue reports whether ctx is still alive.
func ShouldContinue(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}
