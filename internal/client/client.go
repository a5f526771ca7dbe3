package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatsync/internal/logging"
	"chatsync/internal/types"
)

const (
	defaultBaseURL        = "http://127.0.0.1:8787"
	defaultRequestTimeout = 10 * time.Second
	defaultSendTimeout    = 60 * time.Second
)

// ErrNoToken is returned when no bearer token is available. The auth flow
// owns token issuance; callers treat this like a 401.
var ErrNoToken = errors.New("no bearer token; sign in first")

type Options struct {
	BaseURL        string
	Tokens         TokenSource
	RequestTimeout time.Duration
	SendTimeout    time.Duration
	Logger         logging.Logger
}

type Client struct {
	baseURL     string
	tokens      TokenSource
	http        *http.Client
	sendTimeout time.Duration
	logger      logging.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:     baseURL,
		tokens:      tokens,
		http:        &http.Client{Timeout: requestTimeout},
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

func NewWithBaseURL(baseURL, token string) *Client {
	return New(Options{BaseURL: baseURL, Tokens: StaticToken(token)})
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendMessage posts a user message. An empty SessionID asks the backend to
// create a session. Sends may wait on the assistant, so they use the longer
// send timeout instead of the default request timeout.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	req.SessionID = strings.TrimSpace(req.SessionID)
	var resp SendMessageResponse
	if err := c.doJSONWithTimeout(ctx, http.MethodPost, "/messages", req, &resp, c.sendTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*types.ChatSession, error) {
	path, err := sessionPath(id, "")
	if err != nil {
		return nil, err
	}
	var session types.ChatSession
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]*types.SessionSummary, error) {
	var resp SessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) RenameSession(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is required")
	}
	path, err := sessionPath(id, "")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, path, RenameSessionRequest{Title: title}, nil)
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	path, err := sessionPath(id, "")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) SaveSession(ctx context.Context, id string) error {
	path, err := sessionPath(id, "save")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

func sessionPath(id, action string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("session id is required")
	}
	path := "/sessions/" + url.PathEscape(id)
	if action != "" {
		path += "/" + action
	}
	return path, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	return c.doJSONWithClient(ctx, method, path, body, out, c.http)
}

func (c *Client) doJSONWithTimeout(ctx context.Context, method, path string, body any, out any, timeout time.Duration) error {
	client := c.http
	if timeout > 0 {
		client = &http.Client{
			Timeout:   timeout,
			Transport: c.http.Transport,
		}
	}
	return c.doJSONWithClient(ctx, method, path, body, out, client)
}

func (c *Client) doJSONWithClient(ctx context.Context, method, path string, body any, out any, httpClient *http.Client) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out, httpClient)
}

func (c *Client) do(req *http.Request, out any, httpClient *http.Client) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return ErrNoToken
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			logging.F("method", req.Method),
			logging.F("path", req.URL.Path),
			logging.Err(err),
		)
		return err
	}
	defer resp.Body.Close()
	c.logger.Debug("request done",
		logging.F("method", req.Method),
		logging.F("path", req.URL.Path),
		logging.F("status", resp.StatusCode),
		logging.F("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	message := strings.TrimSpace(payload.Error)
	if message == "" {
		message = strings.TrimSpace(payload.Message)
	}
	if message == "" {
		message = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNoToken) {
		return true
	}
	apiErr := AsAPIError(err)
	return apiErr != nil && apiErr.StatusCode == http.StatusUnauthorized
}

func IsConflict(err error) bool {
	apiErr := AsAPIError(err)
	return apiErr != nil && apiErr.StatusCode == http.StatusConflict
}

func IsNotFound(err error) bool {
	apiErr := AsAPIError(err)
	return apiErr != nil && apiErr.StatusCode == http.StatusNotFound
}
