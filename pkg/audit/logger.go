package audit

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger receives audit events
type Logger interface {
	Log(ctx context.Context, event *Event) error
	Close() error
}

// NoOpLogger discards every event
type NoOpLogger struct{}

func (NoOpLogger) Log(ctx context.Context, event *Event) error { return nil }
func (NoOpLogger) Close() error                                 { return nil }

// StreamLogger writes events as JSON lines to an io.Writer through logrus.
// The audit fields sit at the top level of each line next to "time" and "msg".
type StreamLogger struct {
	mu     sync.Mutex
	out    *logrus.Logger
	closer io.Closer
}

// NewStreamLogger writes to w. If w is an io.Closer it is closed by Close.
func NewStreamLogger(w io.Writer) *StreamLogger {
	out := logrus.New()
	out.SetOutput(w)
	out.SetLevel(logrus.InfoLevel)
	out.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "msg",
		},
	})

	l := &StreamLogger{out: out}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Log writes one event
func (l *StreamLogger) Log(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("audit event is nil")
	}

	fields := logrus.Fields{
		"event_type": event.Type,
		"status":     event.Status,
	}
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("user_id", event.UserID)
	add("role", event.Role)
	add("permission", event.Permission)
	add("reason", event.Reason)
	add("resource_type", event.ResourceType)
	add("resource_id", event.ResourceID)
	add("request_id", event.RequestID)
	add("ip_address", event.IPAddress)
	add("method", event.Method)
	add("path", event.Path)
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	msg := event.Message
	if msg == "" {
		msg = string(event.Type)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.WithTime(event.Timestamp).WithFields(fields).Info(msg)
	return nil
}

// Close closes the underlying writer when it is closable
func (l *StreamLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
