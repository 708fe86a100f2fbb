package auditlog

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestComputeIntegritySHA256_Deterministic(t *testing.T) {
	event := Event{
		OccurredAt:   time.Unix(1700000000, 0).UTC(),
		Actor:        "alice",
		Action:       "card.moved",
		ResourceType: "card",
		ResourceID:   "card-1",
		RequestID:    "req-123",
		IP:           net.ParseIP("192.0.2.1"),
		UserAgent:    "test-agent",
	}
	payloadJSON := []byte(`{"from":3,"to":1}`)

	a, err := ComputeIntegritySHA256(event, payloadJSON)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	b, err := ComputeIntegritySHA256(event, payloadJSON)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a != b || len(a) != 64 {
		t.Fatalf("integrity mismatch: %q vs %q", a, b)
	}

	c, err := ComputeIntegritySHA256(event, []byte(`{"from":3,"to":2}`))
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a == c {
		t.Fatalf("expected integrity to differ when payload changes")
	}
}

func TestEventValidate(t *testing.T) {
	event := Event{OccurredAt: time.Now(), Actor: "a", Action: "card.created", ResourceType: "card"}
	if err := event.Validate(); err == nil || !strings.Contains(err.Error(), "ResourceID") {
		t.Fatalf("Validate() err=%v, want ResourceID error", err)
	}
	event.ResourceID = "c1"
	if err := event.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestInsertRequiresQueryer(t *testing.T) {
	if _, err := Insert(context.Background(), nil, Event{}); err == nil {
		t.Fatalf("expected error")
	}
	if NewWriter(nil, "svc") != nil {
		t.Fatalf("NewWriter(nil) should be nil")
	}
}

func TestRemoteIP(t *testing.T) {
	cases := map[string]string{
		"192.0.2.1:5555":  "192.0.2.1",
		"[2001:db8::1]:80": "2001:db8::1",
		"198.51.100.7":    "198.51.100.7",
		"garbage":         "",
	}
	for in, want := range cases {
		if got := ipString(RemoteIP(in)); got != want {
			t.Fatalf("RemoteIP(%q)=%q, want %q", in, got, want)
		}
	}
}
