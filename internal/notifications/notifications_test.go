package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ziadkadry99/support-router/internal/audit"
)

type webhookRecorder struct {
	mu       sync.Mutex
	received []Notification
}

func (rec *webhookRecorder) server(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var n Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		rec.mu.Lock()
		rec.received = append(rec.received, n)
		rec.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (rec *webhookRecorder) count() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.received)
}

type memAudit struct {
	entries []audit.Entry
	err     error
}

func (m *memAudit) Log(_ context.Context, e audit.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"", SeverityCritical, false},
		{"info", SeverityInfo, false},
		{"warning", SeverityWarning, false},
		{"critical", SeverityCritical, false},
		{"loud", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromEntry(t *testing.T) {
	n := FromEntry(audit.Entry{
		ID:          "a1",
		Action:      audit.ActionVerificationLocked,
		SessionHash: "abc",
		Summary:     "too many failed attempts",
		Detail:      "3 of 3",
	})
	if n.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", n.Severity)
	}
	if n.Message != "too many failed attempts: 3 of 3" {
		t.Errorf("Message = %q", n.Message)
	}
	if n.Title == "" || n.SessionHash != "abc" || n.ID != "a1" {
		t.Errorf("unexpected notification: %+v", n)
	}

	if got := FromEntry(audit.Entry{Action: audit.ActionVerificationStarted}).Severity; got != SeverityInfo {
		t.Errorf("started severity = %q, want info", got)
	}
	if got := FromEntry(audit.Entry{Action: audit.ActionSessionReset}).Severity; got != SeverityWarning {
		t.Errorf("reset severity = %q, want warning", got)
	}
}

func TestDispatchFiltersBySeverity(t *testing.T) {
	rec := &webhookRecorder{}
	srv := rec.server(t, http.StatusOK)
	d := NewDispatcher([]string{srv.URL}, SeverityWarning)
	ctx := context.Background()

	if err := d.Dispatch(ctx, Notification{Severity: SeverityInfo}); err != nil {
		t.Fatalf("Dispatch(info): %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("info notification was delivered")
	}
	if err := d.Dispatch(ctx, Notification{Severity: SeverityCritical, Title: "locked"}); err != nil {
		t.Fatalf("Dispatch(critical): %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.count())
	}
	if rec.received[0].Title != "locked" {
		t.Errorf("Title = %q, want locked", rec.received[0].Title)
	}
}

func TestDispatchReportsFailures(t *testing.T) {
	ok := &webhookRecorder{}
	bad := &webhookRecorder{}
	d := NewDispatcher([]string{bad.server(t, http.StatusBadGateway).URL, ok.server(t, http.StatusNoContent).URL}, SeverityInfo)

	err := d.Dispatch(context.Background(), Notification{Severity: SeverityCritical})
	if err == nil {
		t.Fatal("expected error from failing webhook")
	}
	if ok.count() != 1 {
		t.Errorf("healthy webhook got %d deliveries, want 1", ok.count())
	}
}

func TestForwarderRecordsThenEscalates(t *testing.T) {
	rec := &webhookRecorder{}
	next := &memAudit{}
	f := NewForwarder(next, NewDispatcher([]string{rec.server(t, http.StatusOK).URL}, SeverityCritical), nil)
	ctx := context.Background()

	if err := f.Log(ctx, audit.Entry{Action: audit.ActionVerificationFailed, SessionHash: "s1"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := f.Log(ctx, audit.Entry{Action: audit.ActionVerificationLocked, SessionHash: "s1"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	if len(next.entries) != 2 {
		t.Fatalf("wrapped logger got %d entries, want 2", len(next.entries))
	}
	if rec.count() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.count())
	}
	got := rec.received[0]
	if got.Action != audit.ActionVerificationLocked {
		t.Errorf("Action = %q, want %q", got.Action, audit.ActionVerificationLocked)
	}
	if got.ID == "" || got.ID != next.entries[1].ID {
		t.Errorf("notification ID %q does not match audit entry %q", got.ID, next.entries[1].ID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestForwarderWithoutAuditTrail(t *testing.T) {
	rec := &webhookRecorder{}
	f := NewForwarder(nil, NewDispatcher([]string{rec.server(t, http.StatusOK).URL}, SeverityInfo), nil)

	if err := f.Log(context.Background(), audit.Entry{Action: audit.ActionVerificationStarted}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("got %d deliveries, want 1", rec.count())
	}
}

func TestForwarderPropagatesAuditErrors(t *testing.T) {
	rec := &webhookRecorder{}
	want := errors.New("disk full")
	f := NewForwarder(&memAudit{err: want}, NewDispatcher([]string{rec.server(t, http.StatusOK).URL}, SeverityInfo), nil)

	if err := f.Log(context.Background(), audit.Entry{Action: audit.ActionVerificationLocked}); !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
	if rec.count() != 0 {
		t.Errorf("notification sent despite audit failure")
	}
}

func TestForwarderSwallowsDeliveryErrors(t *testing.T) {
	rec := &webhookRecorder{}
	f := NewForwarder(&memAudit{}, NewDispatcher([]string{rec.server(t, http.StatusInternalServerError).URL}, SeverityInfo), nil)

	if err := f.Log(context.Background(), audit.Entry{Action: audit.ActionVerificationLocked}); err != nil {
		t.Errorf("Log returned delivery error: %v", err)
	}
}
