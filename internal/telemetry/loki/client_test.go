package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-client/internal/telemetry/domain"
)

func capturePushes(t *testing.T, status int) (*httptest.Server, *[]PushRequest) {
	t.Helper()
	var got []PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q, want /loki/api/v1/push", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var req PushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode push: %v", err)
		}
		got = append(got, req)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestPushEventJSON_Labels(t *testing.T) {
	srv, got := capturePushes(t, http.StatusNoContent)
	c := NewClient(srv.URL + "/")
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := &domain.SessionEvent{ID: "1", Type: domain.EventLogout, Source: "portfolioctl", Reason: "expired", CreatedAt: created}
	raw, _ := json.Marshal(ev)

	if err := c.PushEventJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(*got) != 1 || len((*got)[0].Streams) != 1 {
		t.Fatalf("pushes = %+v", *got)
	}
	s := (*got)[0].Streams[0]
	want := map[string]string{"job": "portfolio-client", "event_type": "logout", "source": "portfolioctl", "reason": "expired"}
	for k, v := range want {
		if s.Stream[k] != v {
			t.Errorf("label %q = %q, want %q", k, s.Stream[k], v)
		}
	}
	if s.Values[0][0] != "1767323045000000000" {
		t.Errorf("timestamp = %q", s.Values[0][0])
	}
	if s.Values[0][1] != string(raw) {
		t.Errorf("line = %q, want raw event", s.Values[0][1])
	}
}

func TestPushEventJSON_Unparsable(t *testing.T) {
	srv, got := capturePushes(t, http.StatusNoContent)
	c := NewClient(srv.URL)
	if err := c.PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	s := (*got)[0].Streams[0]
	if len(s.Stream) != 1 || s.Stream["job"] != "portfolio-client" {
		t.Errorf("labels = %v, want only job", s.Stream)
	}
}

func TestPushEvent_SanitizesLabels(t *testing.T) {
	srv, got := capturePushes(t, http.StatusNoContent)
	c := NewClient(srv.URL)
	c.Job = "custom"
	err := c.PushEvent(context.Background(), time.Unix(1, 0), "line", map[string]string{"reason": "bad value!", "empty": "   "})
	if err != nil {
		t.Fatalf("PushEvent: %v", err)
	}
	s := (*got)[0].Streams[0]
	if s.Stream["job"] != "custom" {
		t.Errorf("job = %q", s.Stream["job"])
	}
	if s.Stream["reason"] != "bad_value_" {
		t.Errorf("reason = %q, want %q", s.Stream["reason"], "bad_value_")
	}
	if _, ok := s.Stream["empty"]; ok {
		t.Error("blank label should be dropped")
	}
}

func TestPushEvent_Non2xx(t *testing.T) {
	srv, _ := capturePushes(t, http.StatusBadRequest)
	if err := NewClient(srv.URL).PushEvent(context.Background(), time.Now(), "x", nil); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestPushEvent_EmptyBaseURL(t *testing.T) {
	if err := NewClient("").PushEvent(context.Background(), time.Now(), "x", nil); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
