// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/statchat/internal/admin"
	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/logging"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/session"
	"github.com/jeranaias/statchat/internal/ui/components"
	"github.com/jeranaias/statchat/internal/ui/styles"
)

// Texts shown by the UI itself.
const (
	noticeExpired   = "Tu sesión expiró. Inicia sesión nuevamente."
	noticeLoggedOut = "Sesión cerrada"
	noticeCopied    = "Consulta SQL copiada al portapapeles"
	noticeCopyError = "No se pudo copiar al portapapeles"
	noticeBusy      = "Espera la respuesta anterior antes de enviar otra pregunta."
	noticeNoQuery   = "Este mensaje no tiene consulta SQL"

	confirmDelete     = "¿Eliminar esta conversación?"
	confirmRemoveTerm = "¿Eliminar el término seleccionado?"
)

// Deps are the services the UI drives. Panel and Stats may be nil.
type Deps struct {
	Session  *session.Store
	Manager  *conversation.Manager
	Registry *conversation.Registry
	Panel    *admin.Panel
	Stats    *admin.StatsTracker
	Logger   *slog.Logger

	// Theme is "auto", "light" or "dark".
	Theme        string
	ShowSQL      bool
	SidebarWidth int
}

type screen int

const (
	screenLogin screen = iota
	screenChat
	screenAdmin
)

type focus int

const (
	focusInput focus = iota
	focusMessages
	focusSidebar
)

// flash is a notice owned by the UI.
type flash struct {
	text    string
	isError bool
}

// confirmAction is the operation a y/n prompt guards.
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmDeleteConversation
	confirmDeleteTerm
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *slog.Logger
	theme  *styles.Theme
	keys   KeyMap
	md     *components.Markdown

	width  int
	height int
	screen screen
	focus  focus

	login loginForm

	input    textarea.Model
	viewport viewport.Model
	spinner  components.Spinner
	sidebar  components.Sidebar
	// selected is the highlighted message index, or -1 to follow the last.
	selected int
	showSQL  bool

	state          conversation.State
	registryNotice string
	flash          flash

	details   *model.MessageDetails
	detailsVP viewport.Model

	confirm confirmAction

	admin adminPane
}

// New creates the root model. ctx bounds every backend call the UI makes.
func New(ctx context.Context, deps Deps) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrDefault(deps.Logger)
	if deps.SidebarWidth <= 0 {
		deps.SidebarWidth = 32
	}
	theme := styles.NewTheme(deps.Theme)

	ta := textarea.New()
	ta.Placeholder = "Escribe tu pregunta sobre defunciones en Chile..."
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 2000
	ta.SetHeight(3)
	// Enter sends; alt+enter breaks the line.
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")

	m := Model{
		ctx:       ctx,
		deps:      deps,
		logger:    logger,
		theme:     theme,
		keys:      DefaultKeyMap(),
		md:        components.NewMarkdown(theme.GlamourStyle()),
		input:     ta,
		viewport:  viewport.New(80, 20),
		detailsVP: viewport.New(80, 20),
		spinner:   components.NewSpinner(),
		selected:  -1,
		showSQL:   deps.ShowSQL,
		login:     newLoginForm(),
		admin:     newAdminPane(),
	}
	if deps.Session != nil && deps.Session.IsAuthenticated() {
		m.screen = screenChat
		m.input.Focus()
	} else {
		m.screen = screenLogin
		m.login.focusCmd()
	}
	m.state = deps.Manager.Snapshot()
	return m
}

// Init starts the first loads for the initial screen.
func (m Model) Init() tea.Cmd {
	if m.screen == screenLogin {
		return textinput.Blink
	}
	return tea.Batch(textarea.Blink, m.refreshListCmd(), m.refreshStatsCmd())
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) refreshListCmd() tea.Cmd {
	reg := m.deps.Registry
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opRefresh, err: reg.Refresh(ctx)}
	}
}

func (m Model) refreshStatsCmd() tea.Cmd {
	if m.deps.Stats == nil {
		return nil
	}
	stats := m.deps.Stats
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opStats, err: stats.Refresh(ctx)}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	mgr := m.deps.Manager
	ctx := m.ctx
	return func() tea.Msg {
		res, err := mgr.Send(ctx, text)
		return sendDoneMsg{question: text, result: res, err: err}
	}
}

func (m Model) loadCmd(conv model.Conversation) tea.Cmd {
	mgr := m.deps.Manager
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opLoad, err: mgr.Load(ctx, &conv)}
	}
}

func (m Model) restartCmd() tea.Cmd {
	mgr := m.deps.Manager
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opRestart, err: mgr.RestartContext(ctx)}
	}
}

func (m Model) deleteCmd() tea.Cmd {
	mgr := m.deps.Manager
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opDelete, err: mgr.DeleteActive(ctx)}
	}
}

func (m Model) detailsCmd(messageID string) tea.Cmd {
	mgr := m.deps.Manager
	ctx := m.ctx
	return func() tea.Msg {
		d, err := mgr.Details(ctx, messageID)
		return detailsMsg{details: d, err: err}
	}
}

func (m Model) loginCmd(c session.Credentials) tea.Cmd {
	st := m.deps.Session
	ctx := m.ctx
	return func() tea.Msg {
		_, err := st.Login(ctx, c)
		return authResultMsg{err: err}
	}
}

func (m Model) registerCmd(r session.Registration) tea.Cmd {
	st := m.deps.Session
	ctx := m.ctx
	return func() tea.Msg {
		return authResultMsg{register: true, err: st.Register(ctx, r)}
	}
}

func logoutCmd(st *session.Store) tea.Cmd {
	return func() tea.Msg {
		// The store notifies; the resulting sessionChangedMsg routes to login.
		if err := st.Logout(); err != nil {
			return opDoneMsg{op: opLogout, err: err}
		}
		return nil
	}
}
