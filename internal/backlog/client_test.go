package backlog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "backrelay/pkg/logx"
)

func TestNotificationsQueryEncoding(t *testing.T) {
	t.Parallel()
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[{"id":105,"alreadyRead":false,"reason":{"reasonId":2},"created":"2026-03-01T09:30:00Z"}]`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, logx.Nop())
	c.BaseURL = srv.URL

	items, err := c.Notifications(context.Background(), NotificationsQuery{
		Space:  "acme",
		Host:   "backlog.jp",
		APIKey: "secret",
		Count:  100,
		MaxID:  104,
	})
	if err != nil {
		t.Fatalf("Notifications error: %v", err)
	}

	if gotPath != "/api/v2/notifications" {
		t.Fatalf("path = %q", gotPath)
	}
	for key, want := range map[string]string{
		"count":  "100",
		"order":  "desc",
		"apiKey": "secret",
		"maxId":  "104",
	} {
		if len(gotQuery[key]) != 1 || gotQuery[key][0] != want {
			t.Fatalf("query[%s] = %v, want %q", key, gotQuery[key], want)
		}
	}

	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	n := items[0]
	if n.ID != 105 || n.AlreadyRead || n.Reason.ReasonID != 2 {
		t.Fatalf("item = %+v", n)
	}
	if !n.Created.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("created = %v", n.Created)
	}
}

func TestNotificationsOmitsMaxIDOnFirstPage(t *testing.T) {
	t.Parallel()
	var sawMaxID bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawMaxID = r.URL.Query()["maxId"]
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, logx.Nop())
	c.BaseURL = srv.URL

	items, err := c.Notifications(context.Background(), NotificationsQuery{
		Space: "acme", Host: "backlog.jp", APIKey: "k", Count: 100,
	})
	if err != nil {
		t.Fatalf("Notifications error: %v", err)
	}
	if sawMaxID {
		t.Fatal("maxId must be omitted when unset")
	}
	if len(items) != 0 {
		t.Fatalf("items = %d, want 0", len(items))
	}
}

func TestNotificationsAPIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Authentication failure."}]}`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, logx.Nop())
	c.BaseURL = srv.URL

	_, err := c.Notifications(context.Background(), NotificationsQuery{
		Space: "acme", Host: "backlog.jp", APIKey: "bad", Count: 100,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want 401", apiErr.Status)
	}
	if apiErr.Body == "" {
		t.Fatal("Body should carry the response text")
	}
}

func TestNotificationsMalformedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, logx.Nop())
	c.BaseURL = srv.URL

	_, err := c.Notifications(context.Background(), NotificationsQuery{
		Space: "acme", Host: "backlog.jp", APIKey: "k", Count: 100,
	})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("error = %v, want ErrMalformed", err)
	}
}

func TestNotificationKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		n    Notification
		want Kind
	}{
		{"comment on issue", Notification{Issue: &Issue{}, Comment: &Comment{}}, KindIssueComment},
		{"plain issue", Notification{Issue: &Issue{}}, KindIssue},
		{"pull request", Notification{PullRequest: &PullRequest{}}, KindPullRequest},
		{"wiki", Notification{Wiki: &Wiki{}}, KindWiki},
		{"bare", Notification{}, KindGeneric},
		{"comment without issue is generic", Notification{Comment: &Comment{}}, KindGeneric},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.n.Kind(); got != tt.want {
				t.Fatalf("Kind = %v, want %v", got, tt.want)
			}
		})
	}
}
