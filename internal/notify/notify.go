// Package notify delivers best-effort notifications to watchers, assignees
// and escalation contacts. Delivery failures are recorded and logged, never
// surfaced as operation failures.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Delivery records the outcome of one recipient's notification.
type Delivery struct {
	Recipient string `json:"recipient"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// Notifier sends a message to a list of recipients. Implementations are
// best-effort: a Delivery per recipient, no fatal errors.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, message string) []Delivery
}

// Dispatcher routes recipients by prefix:
//
//	log              write to the structured log (default for bare names)
//	email:<addr>     send via the system mail command
//	webhook:<url>    POST the message as JSON
type Dispatcher struct {
	Logger     *log.Logger
	HTTPClient *http.Client
}

// NewDispatcher builds a Dispatcher with sane defaults.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Notify implements Notifier.
func (d *Dispatcher) Notify(ctx context.Context, recipients []string, message string) []Delivery {
	results := make([]Delivery, 0, len(recipients))
	for _, r := range recipients {
		del := d.dispatchOne(ctx, r, message)
		if !del.OK {
			d.Logger.Warn("notification failed", "recipient", del.Recipient, "error", del.Error)
		}
		results = append(results, del)
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, recipient, message string) Delivery {
	del := Delivery{Recipient: recipient}

	switch {
	case strings.HasPrefix(recipient, "email:"):
		addr := strings.TrimPrefix(recipient, "email:")
		if err := d.sendEmail(addr, message); err != nil {
			del.Error = err.Error()
			return del
		}
		del.OK = true

	case strings.HasPrefix(recipient, "webhook:"):
		url := strings.TrimPrefix(recipient, "webhook:")
		if err := d.sendWebhook(ctx, url, message); err != nil {
			del.Error = err.Error()
			return del
		}
		del.OK = true

	default:
		// Bare names (usernames, "log") land in the structured log; actual
		// user-directed delivery is the tracker's own notification system,
		// triggered by the comments and mentions we write through the adapter.
		d.Logger.Info("notify", "recipient", recipient, "message", message)
		del.OK = true
	}

	return del
}

func (d *Dispatcher) sendEmail(to, message string) error {
	cmd := exec.Command("mail", "-s", subjectLine(message), to)
	cmd.Stdin = strings.NewReader(message)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mail command failed: %w", err)
	}
	return nil
}

func (d *Dispatcher) sendWebhook(ctx context.Context, url, message string) error {
	body := fmt.Sprintf("{\"message\": %q}", message)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(body)))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func subjectLine(message string) string {
	line := message
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if len(line) > 72 {
		line = line[:69] + "..."
	}
	return line
}

// Recorder is a Notifier for tests: it records every call.
type Recorder struct {
	Calls []RecordedCall
	// Fail makes every delivery report failure.
	Fail bool
}

// RecordedCall is one Notify invocation.
type RecordedCall struct {
	Recipients []string
	Message    string
}

// Notify implements Notifier.
func (r *Recorder) Notify(ctx context.Context, recipients []string, message string) []Delivery {
	r.Calls = append(r.Calls, RecordedCall{Recipients: recipients, Message: message})
	out := make([]Delivery, 0, len(recipients))
	for _, rec := range recipients {
		d := Delivery{Recipient: rec, OK: !r.Fail}
		if r.Fail {
			d.Error = "recorder configured to fail"
		}
		out = append(out, d)
	}
	return out
}
