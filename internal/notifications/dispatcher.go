package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/logger"
)

// Dispatcher delivers notifications to webhook subscribers.
type Dispatcher struct {
	webhooks    []string
	minSeverity Severity
	client      *http.Client
}

// NewDispatcher creates a Dispatcher that posts notifications at or above
// minSeverity to every webhook.
func NewDispatcher(webhooks []string, minSeverity Severity) *Dispatcher {
	return &Dispatcher{
		webhooks:    webhooks,
		minSeverity: minSeverity,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Dispatch sends n to every webhook. Notifications below the minimum
// severity are dropped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	if !n.Severity.AtLeast(d.minSeverity) {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	var errs []error
	for _, url := range d.webhooks {
		if err := d.SendWebhook(ctx, url, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", url, resp.StatusCode)
	}
	return nil
}

// Forwarder is an audit.Logger that records each entry with the wrapped
// logger and then escalates it through a Dispatcher.
type Forwarder struct {
	next       audit.Logger
	dispatcher *Dispatcher
	log        *logger.Logger
}

// NewForwarder wraps next, which may be nil when the audit trail is off.
func NewForwarder(next audit.Logger, dispatcher *Dispatcher, log *logger.Logger) *Forwarder {
	if log == nil {
		log = logger.Nop()
	}
	return &Forwarder{next: next, dispatcher: dispatcher, log: log}
}

// Log implements audit.Logger. Delivery failures are logged, never returned.
func (f *Forwarder) Log(ctx context.Context, entry audit.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if f.next != nil {
		if err := f.next.Log(ctx, entry); err != nil {
			return err
		}
	}
	if err := f.dispatcher.Dispatch(ctx, FromEntry(entry)); err != nil {
		f.log.Warn("notification delivery failed", "action", entry.Action, "error", err)
	}
	return nil
}
