package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDispatcherLogsBareRecipients(t *testing.T) {
	d := NewDispatcher(nil)
	got := d.Notify(context.Background(), []string{"alice", "team-lead"}, "issue updated")
	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(got))
	}
	for _, del := range got {
		if !del.OK {
			t.Errorf("delivery to %s failed: %s", del.Recipient, del.Error)
		}
	}
}

func TestDispatcherWebhook(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
	}))
	defer srv.Close()

	d := NewDispatcher(nil)
	got := d.Notify(context.Background(), []string{"webhook:" + srv.URL}, "blocked issue escalated")
	if len(got) != 1 || !got[0].OK {
		t.Fatalf("delivery = %+v, want ok", got)
	}
	if body["message"] != "blocked issue escalated" {
		t.Errorf("posted message = %q", body["message"])
	}
}

func TestDispatcherWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDispatcher(nil)
	got := d.Notify(context.Background(), []string{"webhook:" + srv.URL}, "x")
	if got[0].OK || !strings.Contains(got[0].Error, "403") {
		t.Errorf("delivery = %+v, want 403 failure", got[0])
	}
}

func TestSubjectLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short message", "short message"},
		{"first line\nsecond line", "first line"},
		{strings.Repeat("a", 100), strings.Repeat("a", 69) + "..."},
	}
	for _, tt := range tests {
		if got := subjectLine(tt.in); got != tt.want {
			t.Errorf("subjectLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
