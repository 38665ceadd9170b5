package editor

import "log"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// Notice is one user-visible message. Every failure inside the session is
// converted to a Notice; nothing escapes to the caller as a panic or an
// unhandled error.
type Notice struct {
	Severity Severity
	Summary  string
	Detail   string
}

// Notifier receives user-visible messages from the session and pipeline.
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to the process log. The CLI uses it directly;
// a UI collaborator would supply its own implementation.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	log.Printf("[%s] %s: %s", n.Severity, n.Summary, n.Detail)
}
