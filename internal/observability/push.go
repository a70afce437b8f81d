package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// PushConn describes one push channel connection for event reporting.
type PushConn struct {
	ConnID      string
	Transport   string
	Endpoint    string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// NewPushConn starts a connection record for transport dialing endpoint.
func NewPushConn(transport, endpoint string) PushConn {
	return PushConn{
		ConnID:      newConnID(),
		Transport:   transport,
		Endpoint:    endpoint,
		RequestID:   NewRequestID(),
		ConnectedAt: time.Now(),
	}
}

// PublishPushEvent counts a push channel lifecycle event and forwards it to
// the activity exchange. err may be nil.
func PublishPushEvent(ctx context.Context, conn PushConn, event string, err error) {
	IncPushEvent(conn.Transport, event)

	push := map[string]interface{}{
		"transport":   conn.Transport,
		"event":       event,
		"conn_id":     conn.ConnID,
		"endpoint":    conn.Endpoint,
		"duration_ms": time.Since(conn.ConnectedAt).Milliseconds(),
	}
	if err != nil {
		push["reason"] = err.Error()
	}

	_ = PublishEvent(ctx, "push_events."+conn.Transport, EventEnvelope{
		EventType: "push_events",
		EventName: event,
		Headers:   BuildHeaders(conn.RequestID, conn.TraceID),
		Payload:   map[string]interface{}{"push": push},
	})
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
