package devserver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatsync/internal/logging"
	"chatsync/internal/types"
)

// Responder produces the assistant reply for a user message.
type Responder func(ctx context.Context, session *types.ChatSession, msg types.Message) (string, error)

// EchoResponder answers with the user's own text.
func EchoResponder(_ context.Context, _ *types.ChatSession, msg types.Message) (string, error) {
	reply := "You said: " + msg.Content
	if n := len(msg.Attachments); n > 0 {
		reply += fmt.Sprintf(" (%d attachment(s))", n)
	}
	return reply, nil
}

type ServiceOptions struct {
	Now        func() time.Time
	NewID      func() string
	Responder  Responder
	ReplyDelay time.Duration
	Logger     logging.Logger
}

type storedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// SessionService is the in-memory chat backend. Deleted ids are remembered
// so late writes to them fail like they would against a real server.
type SessionService struct {
	mu        sync.Mutex
	sessions  map[string]*types.ChatSession
	deleted   map[string]struct{}
	files     map[string]storedFile
	now       func() time.Time
	newID     func() string
	responder Responder
	delay     time.Duration
	logger    logging.Logger
}

func NewSessionService(opts ServiceOptions) *SessionService {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	responder := opts.Responder
	if responder == nil {
		responder = EchoResponder
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &SessionService{
		sessions:  map[string]*types.ChatSession{},
		deleted:   map[string]struct{}{},
		files:     map[string]storedFile{},
		now:       now,
		newID:     newID,
		responder: responder,
		delay:     opts.ReplyDelay,
		logger:    logger,
	}
}

// Seed installs sessions as-is, replacing any with the same id.
func (s *SessionService) Seed(sessions ...*types.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range sessions {
		if session == nil || strings.TrimSpace(session.ID) == "" {
			continue
		}
		s.sessions[session.ID] = cloneSession(session)
		delete(s.deleted, session.ID)
	}
}

// Send appends a user message, creating the session when sessionID is
// empty, and returns it together with the assistant reply.
func (s *SessionService) Send(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	text := strings.TrimSpace(req.Text)
	attachments := make([]string, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		if att = strings.TrimSpace(att); att != "" {
			attachments = append(attachments, att)
		}
	}
	if text == "" && len(attachments) == 0 {
		return nil, invalidError("text or attachments required", nil)
	}
	if len(attachments) == 0 {
		attachments = nil
	}

	s.mu.Lock()
	now := s.now()
	var session *types.ChatSession
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		session = &types.ChatSession{SessionSummary: types.SessionSummary{
			ID:        s.newID(),
			Title:     deriveTitle(text),
			CreatedAt: now,
		}}
		s.sessions[session.ID] = session
		s.logger.Info("session created", logging.F("session_id", session.ID))
	} else {
		var ok bool
		session, ok = s.sessions[sessionID]
		if !ok {
			s.mu.Unlock()
			return nil, notFoundError("session not found")
		}
	}
	user := types.Message{
		ID:          s.newID(),
		Sender:      types.SenderUser,
		Content:     text,
		Attachments: attachments,
		Timestamp:   now,
	}
	session.Messages = append(session.Messages, user)
	session.LastActivityAt = now
	snapshot := cloneSession(session)
	s.mu.Unlock()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, unavailableError("reply cancelled", ctx.Err())
		case <-timer.C:
		}
	}
	content, err := s.responder(ctx, snapshot, user)
	if err != nil {
		return nil, unavailableError("assistant unavailable", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	reply := types.Message{
		ID:        s.newID(),
		Sender:    types.SenderAssistant,
		Content:   content,
		Timestamp: s.now(),
	}
	if current, ok := s.sessions[snapshot.ID]; ok {
		current.Messages = append(current.Messages, reply)
		current.LastActivityAt = reply.Timestamp
	}
	return &SendMessageResponse{
		SessionID: snapshot.ID,
		Messages:  []types.Message{user.Clone(), reply},
	}, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, notFoundError("session not found")
	}
	return cloneSession(session), nil
}

// List returns summaries, most recent activity first.
func (s *SessionService) List(ctx context.Context) ([]*types.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summary := session.SessionSummary
		out = append(out, &summary)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ActivityAt(), out[j].ActivityAt()
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *SessionService) Rename(ctx context.Context, id, title string) error {
	title = sanitizeTitle(title)
	if title == "" {
		return invalidError("title is required", nil)
	}
	return s.update(id, func(session *types.ChatSession) {
		session.Title = title
	})
}

func (s *SessionService) Save(ctx context.Context, id string) error {
	return s.update(id, func(session *types.ChatSession) {
		session.Saved = true
	})
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	if _, ok := s.sessions[id]; !ok {
		return notFoundError("session not found")
	}
	delete(s.sessions, id)
	s.deleted[id] = struct{}{}
	s.logger.Info("session deleted", logging.F("session_id", id))
	return nil
}

// Deleted reports whether id was deleted.
func (s *SessionService) Deleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.deleted[id]
	return ok
}

// StoreFile keeps an uploaded file and returns its id.
func (s *SessionService) StoreFile(name, contentType string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.files[id] = storedFile{Name: name, ContentType: contentType, Data: append([]byte(nil), data...)}
	return id
}

func (s *SessionService) File(id string) (storedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[id]
	return file, ok
}

func (s *SessionService) update(id string, fn func(*types.ChatSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return notFoundError("session not found")
	}
	fn(session)
	return nil
}

func cloneSession(in *types.ChatSession) *types.ChatSession {
	out := &types.ChatSession{SessionSummary: in.SessionSummary}
	out.Messages = types.CloneMessages(in.Messages)
	return out
}
