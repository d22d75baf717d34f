package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/resilience"
)

func TestEventEnvelopeKeepsEntryAndProfile(t *testing.T) {
	event := domain.AuditCompletedEvent{
		Entry: domain.HistoryEntry{
			ID:       "h1",
			FileName: "a.pdf",
			FileType: "PDF",
			Date:     time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
			Result:   domain.AuditResult{Score: 77, OverallVerdict: domain.VerdictFair, Pros: []string{}, Cons: []string{}},
		},
		Profile: domain.ReviewerProfile{ID: "u1", Name: "Lê C"},
	}
	raw, err := encodeEvent(event)
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	got, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if got.Entry.ID != "h1" || got.Profile.Name != "Lê C" || !got.Entry.Date.Equal(event.Entry.Date) {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"doc-123", `{"entry":{}}`} {
		if _, err := decodeEvent([]byte(raw)); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("decodeEvent(%q) expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestClassifyPublishError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want resilience.ErrorClassification
	}{
		{"closed connection", fmt.Errorf("publish: %w", nats.ErrConnectionClosed), resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{"no responders", nats.ErrNoResponders, resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{"flush timeout", fmt.Errorf("nats publish flush: %w", nats.ErrTimeout), resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{"breaker open", gobreaker.ErrOpenState, resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{"canceled", context.Canceled, resilience.ErrorClassification{}},
		{"bad subject", fmt.Errorf("nats publish: %w", nats.ErrBadSubject), resilience.ErrorClassification{}},
		{"oversized event", nats.ErrMaxPayload, resilience.ErrorClassification{}},
		{"unknown", errors.New("permissions violation"), resilience.ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyPublishError(tc.err); got != tc.want {
				t.Fatalf("classifyPublishError(%v) = %+v, want %+v", tc.err, got, tc.want)
			}
		})
	}
}

func TestPublishErrorMarksOutagesTemporary(t *testing.T) {
	if !domain.IsKind(publishError(nats.ErrTimeout), domain.ErrTemporary) {
		t.Fatalf("timeouts should surface as temporary")
	}
	if err := publishError(nats.ErrBadSubject); domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, nats.ErrBadSubject) {
		t.Fatalf("bad subject must stay permanent, got %v", err)
	}
	if publishError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestNewEventMsgSetsDedupHeaders(t *testing.T) {
	date := time.Date(2026, 10, 14, 9, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	msg, err := newEventMsg(DefaultSubject, domain.AuditCompletedEvent{
		Entry: domain.HistoryEntry{ID: "h9", FileName: "b.pptx", Date: date},
	})
	if err != nil {
		t.Fatalf("newEventMsg() error = %v", err)
	}
	if msg.Subject != "audits.completed" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if got := msg.Header.Get(headerMsgID); got != "h9" {
		t.Fatalf("expected msg id h9, got %q", got)
	}
	if got := msg.Header.Get(headerCompletedAt); got != "2026-10-14T02:30:00Z" {
		t.Fatalf("expected UTC completion time, got %q", got)
	}
}

func TestEncodeEventRequiresEntryID(t *testing.T) {
	if _, err := encodeEvent(domain.AuditCompletedEvent{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
