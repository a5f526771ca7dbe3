package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatsync/internal/chat"
	"chatsync/internal/logging"
	"chatsync/internal/store"
)

const (
	tickInterval       = time.Second
	defaultReqTimeout  = 10 * time.Second
	defaultSendTimeout = 60 * time.Second
	minSidebarWidth    = 24
	maxSidebarWidth    = 36
	minViewportWidth   = 20
	minContentHeight   = 6
	composerHeight     = 3
)

type uiMode int

const (
	uiModeNormal uiMode = iota
	uiModeSearch
	uiModeRename
	uiModeAttach
	uiModeConfirmDelete
)

type focusArea int

const (
	focusComposer focusArea = iota
	focusSidebar
)

type ModelOptions struct {
	API        ChatAPI
	Repository store.Repository
	Logger     logging.Logger
	IDs        chat.IDGenerator
	Now        func() time.Time
	Location   *time.Location

	RequestTimeout      time.Duration
	SendTimeout         time.Duration
	PendingTimeout      time.Duration
	RefreshAfterConfirm bool
}

type Model struct {
	api            ChatAPI
	repo           store.Repository
	engine         *chat.Engine
	logger         logging.Logger
	now            func() time.Time
	location       *time.Location
	requestTimeout time.Duration
	sendTimeout    time.Duration
	requestScopes  map[string]requestScope

	composer textarea.Model
	prompt   textinput.Model
	viewport viewport.Model
	loader   spinner.Model

	mode          uiMode
	focus         focusArea
	route         string
	navigated     bool
	filter        chat.Filter
	search        string
	selected      int
	sidebarHidden bool
	attachments   []string
	promptTarget  string
	follow        bool

	composeHistory []string
	transcriptKey  string

	width  int
	height int
	status string

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time
}

func NewModel(opts ModelOptions) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	ids := opts.IDs
	if ids == nil {
		ids = chat.UUIDTempIDs()
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultReqTimeout
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}

	composer := textarea.New()
	composer.Placeholder = "Message"
	composer.ShowLineNumbers = false
	composer.Prompt = "┃ "
	composer.CharLimit = 0
	composer.SetHeight(composerHeight)
	composer.KeyMap.InsertNewline.SetKeys("ctrl+j", "alt+enter")
	composer.Focus()

	prompt := textinput.New()
	prompt.CharLimit = 256

	loader := spinner.New()
	loader.Spinner = spinner.Dot
	loader.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))

	vp := viewport.New(minViewportWidth, minContentHeight)

	return &Model{
		api:    opts.API,
		repo:   opts.Repository,
		logger: logger,
		engine: chat.NewEngine(chat.EngineOptions{
			IDs:                 ids,
			Now:                 now,
			Logger:              logger,
			RefreshAfterConfirm: opts.RefreshAfterConfirm,
			PendingTimeout:      opts.PendingTimeout,
		}),
		now:            now,
		location:       loc,
		requestTimeout: requestTimeout,
		sendTimeout:    sendTimeout,
		composer:       composer,
		prompt:         prompt,
		viewport:       vp,
		loader:         loader,
		route:          chat.RouteNewChat,
		filter:         chat.FilterAll,
		follow:         true,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadAppStateCmd(),
		m.loadSessionCacheCmd(),
		m.loadDraftCmd(""),
		m.applyEffects(m.engine.List()),
		tickCmd(tickInterval),
		textarea.Blink,
	)
}

// Route is the current location: "/" or "/chat/{id}".
func (m *Model) Route() string {
	return m.route
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.syncTranscript()
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	case tickMsg:
		return m.handleTick(time.Time(msg))
	case spinner.TickMsg:
		if !m.busy() {
			return nil
		}
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return cmd
	case sendResultMsg:
		return m.applyEffects(m.engine.SendCompleted(msg.ticket, msg.tempID, msg.resp, msg.err))
	case loadResultMsg:
		if msg.refresh {
			return m.applyEffects(m.engine.RefreshCompleted(msg.ticket, msg.session, msg.err))
		}
		return m.applyEffects(m.engine.LoadCompleted(msg.ticket, msg.session, msg.err))
	case sessionsMsg:
		cmd := m.applyEffects(m.engine.SessionsListed(msg.ticket, msg.sessions, msg.err))
		if msg.err != nil {
			return cmd
		}
		m.clampSelection()
		return tea.Batch(cmd, m.saveSessionCacheCmd(m.engine.Store().Sessions()))
	case mutationResultMsg:
		return m.applyEffects(m.engine.MutationCompleted(msg.ticket, msg.op, msg.sessionID, msg.err))
	case invalidateResultMsg:
		cmd := m.applyEffects(m.engine.InvalidateCompleted(msg.ticket, msg.sessions, msg.listErr, msg.session, msg.sessionErr))
		m.clampSelection()
		return cmd
	case appStateLoadedMsg:
		return m.applyAppState(msg)
	case sessionCacheMsg:
		m.applySessionCache(msg)
		return nil
	case draftLoadedMsg:
		m.applyDraft(msg)
		return nil
	case persistErrMsg:
		m.logger.Warn("local cache write failed", logging.F("what", msg.what), logging.Err(msg.err))
		return nil
	}
	if m.mode == uiModeNormal && m.focus == focusComposer {
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleTick(at time.Time) tea.Cmd {
	if m.toastText != "" && !m.toastActive(at) {
		m.clearToast()
	}
	cmd := m.applyEffects(m.engine.Expire(at))
	return tea.Batch(cmd, tickCmd(tickInterval))
}

// busy reports whether anything the user is waiting on is in flight.
func (m *Model) busy() bool {
	s := m.engine.Store()
	if len(m.engine.Buffer().PendingIDs()) > 0 {
		return true
	}
	return s.SessionID() != "" && !s.Loaded()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.layout()
}

func (m *Model) layout() {
	contentWidth := m.contentWidth()
	m.composer.SetWidth(max(minViewportWidth, contentWidth))
	m.prompt.Width = max(10, contentWidth-20)
	// header, composer, attachment line and status line
	chrome := 1 + composerHeight + 1 + 1
	m.viewport.Width = max(minViewportWidth, contentWidth)
	m.viewport.Height = max(minContentHeight, m.height-chrome)
	m.transcriptKey = ""
}

func (m *Model) sidebarWidth() int {
	if m.sidebarHidden || m.width <= 0 {
		return 0
	}
	return min(maxSidebarWidth, max(minSidebarWidth, m.width/4))
}

func (m *Model) contentWidth() int {
	width := m.width - m.sidebarWidth()
	if m.sidebarWidth() > 0 {
		width--
	}
	return max(minViewportWidth, width)
}

func (m *Model) setStatus(text string) {
	m.status = strings.TrimSpace(text)
}
