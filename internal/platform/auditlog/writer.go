package auditlog

import (
	"context"
	"net"
	"strings"

	"github.com/eventdeck/eventdeck-go/internal/platform/auth"
)

// Writer stamps every record with the emitting service.
type Writer struct {
	q       QueryRower
	service string
}

func NewWriter(q QueryRower, service string) *Writer {
	if q == nil {
		return nil
	}
	return &Writer{q: q, service: strings.TrimSpace(service)}
}

// Record inserts event, adding the service name to map payloads.
func (w *Writer) Record(ctx context.Context, event Event) error {
	if payload, ok := event.Payload.(map[string]any); ok {
		if _, exists := payload["service"]; !exists {
			payload["service"] = w.service
		}
	}
	_, err := Insert(ctx, w.q, event)
	return err
}

// AuthDeny is an auth.AuditFunc.
func (w *Writer) AuthDeny(ctx context.Context, event auth.DenyEvent) error {
	actor := strings.TrimSpace(event.Subject)
	if actor == "" {
		actor = "anonymous"
	}
	return w.Record(ctx, Event{
		OccurredAt:   event.Time,
		Actor:        actor,
		Action:       "auth." + strings.TrimSpace(event.Reason),
		ResourceType: "http",
		ResourceID:   event.Method + " " + event.Path,
		RequestID:    event.RequestID,
		IP:           RemoteIP(event.RemoteAddr),
		UserAgent:    event.UserAgent,
		Payload: map[string]any{
			"status":  event.Status,
			"reason":  event.Reason,
			"error":   event.Error,
			"subject": event.Subject,
			"email":   event.Email,
			"roles":   event.Roles,
		},
	})
}

// RemoteIP extracts the host of an http.Request.RemoteAddr.
func RemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err != nil {
		return net.ParseIP(strings.TrimSpace(remoteAddr))
	}
	return net.ParseIP(host)
}
