package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newRecordingServer(t *testing.T, status int, payload string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func TestSendMessageOmitsEmptySessionID(t *testing.T) {
	server, seen := newRecordingServer(t, http.StatusOK, `{"sessionId":"abc123","messages":[{"id":"m1","sender":"user","content":"Hello","timestamp":"2025-01-02T03:04:05Z"}]}`)
	c := NewWithBaseURL(server.URL, "secret")

	resp, err := c.SendMessage(context.Background(), SendMessageRequest{Text: "Hello"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.SessionID != "abc123" || len(resp.Messages) != 1 || resp.Messages[0].ID != "m1" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if len(*seen) != 1 {
		t.Fatalf("expected one request, got %d", len(*seen))
	}
	req := (*seen)[0]
	if req.method != http.MethodPost || req.path != "/messages" {
		t.Fatalf("unexpected request line: %s %s", req.method, req.path)
	}
	if req.auth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", req.auth)
	}
	var body map[string]any
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["sessionId"]; ok {
		t.Fatalf("expected sessionId to be omitted for a new chat: %s", req.body)
	}
	if body["text"] != "Hello" {
		t.Fatalf("unexpected text: %#v", body["text"])
	}
}

func TestSessionEndpoints(t *testing.T) {
	cases := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		body   string
	}{
		{
			name: "get",
			call: func(c *Client) error {
				_, err := c.GetSession(context.Background(), "a b")
				return err
			},
			method: http.MethodGet,
			path:   "/sessions/a%20b",
		},
		{
			name:   "rename",
			call:   func(c *Client) error { return c.RenameSession(context.Background(), "s1", " New title ") },
			method: http.MethodPatch,
			path:   "/sessions/s1",
			body:   `{"title":"New title"}`,
		},
		{
			name:   "delete",
			call:   func(c *Client) error { return c.DeleteSession(context.Background(), "s1") },
			method: http.MethodDelete,
			path:   "/sessions/s1",
		},
		{
			name:   "save",
			call:   func(c *Client) error { return c.SaveSession(context.Background(), "s1") },
			method: http.MethodPost,
			path:   "/sessions/s1/save",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, seen := newRecordingServer(t, http.StatusOK, `{}`)
			c := NewWithBaseURL(server.URL, "secret")
			if err := tc.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}
			req := (*seen)[0]
			if req.method != tc.method || req.path != tc.path {
				t.Fatalf("unexpected request: %s %s", req.method, req.path)
			}
			if tc.body != "" && string(req.body) != tc.body {
				t.Fatalf("unexpected body: %s", req.body)
			}
		})
	}
}

func TestListSessionsDecodesSummaries(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"sessions":[{"id":"s1","title":"Plan","lastActivityAt":"2025-03-04T10:00:00Z","pinned":true}]}`)
	c := NewWithBaseURL(server.URL, "secret")
	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" || !sessions[0].Pinned || sessions[0].Saved {
		t.Fatalf("unexpected sessions: %#v", sessions)
	}
	if !sessions[0].LastActivityAt.Equal(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected activity time: %v", sessions[0].LastActivityAt)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	cases := []struct {
		status       int
		payload      string
		unauthorized bool
		conflict     bool
		notFound     bool
		message      string
	}{
		{status: http.StatusUnauthorized, payload: `{"error":"token expired"}`, unauthorized: true, message: "token expired"},
		{status: http.StatusConflict, payload: `{"message":"session deleted"}`, conflict: true, message: "session deleted"},
		{status: http.StatusNotFound, payload: ``, notFound: true, message: "404 Not Found"},
		{status: http.StatusInternalServerError, payload: `{"error":"boom"}`, message: "boom"},
	}
	for _, tc := range cases {
		server, _ := newRecordingServer(t, tc.status, tc.payload)
		c := NewWithBaseURL(server.URL, "secret")
		err := c.DeleteSession(context.Background(), "s1")
		apiErr := AsAPIError(err)
		if apiErr == nil {
			t.Fatalf("status %d: expected APIError, got %v", tc.status, err)
		}
		if apiErr.StatusCode != tc.status || apiErr.Message != tc.message {
			t.Fatalf("status %d: unexpected api error %#v", tc.status, apiErr)
		}
		if IsUnauthorized(err) != tc.unauthorized || IsConflict(err) != tc.conflict || IsNotFound(err) != tc.notFound {
			t.Fatalf("status %d: unexpected classification", tc.status)
		}
	}
}

func TestMissingTokenFailsWithoutRequest(t *testing.T) {
	server, seen := newRecordingServer(t, http.StatusOK, `{}`)
	c := NewWithBaseURL(server.URL, "")
	err := c.SaveSession(context.Background(), "s1")
	if !errors.Is(err, ErrNoToken) || !IsUnauthorized(err) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if len(*seen) != 0 {
		t.Fatalf("expected no request without a token")
	}
}

func TestSessionCallsRequireID(t *testing.T) {
	c := NewWithBaseURL("http://127.0.0.1:1", "secret")
	if _, err := c.GetSession(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if err := c.RenameSession(context.Background(), "s1", "  "); err == nil {
		t.Fatalf("expected error for empty title")
	}
}
