// Package notify is the sink for user-facing toasts. The UI layer
// plugs in its own implementation; the default just logs.
package notify

import "go.uber.org/zap"

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Success(msg string) {
	n.Log.Info("notify", zap.String("kind", "success"), zap.String("message", msg))
}

func (n LogNotifier) Error(msg string) {
	n.Log.Warn("notify", zap.String("kind", "error"), zap.String("message", msg))
}
