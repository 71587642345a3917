// Package chat provides the interactive terminal chat interface: the
// turn loop, the thinking placeholder, and recommendation rendering.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"glowchat/internal/catalog"
	"glowchat/internal/config"
	"glowchat/internal/conversation"
	"glowchat/internal/session"
)

// entry is one rendered transcript bubble. Display state only: the
// durable transcript lives in the session's store, and recommendations
// are ephemeral presentation data attached to the turn that produced
// them.
type entry struct {
	role  conversation.Role
	text  string
	recs  []catalog.Recommendation
	isErr bool
}

// turnDoneMsg carries a finished turn back into the update loop.
type turnDoneMsg struct {
	result *session.TurnResult
	err    error
}

// Model is the bubbletea model for the chat UI.
type Model struct {
	sess     *session.Session
	cfg      config.ChatConfig
	log      *zap.Logger
	styles   Styles
	renderer *glamour.TermRenderer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	entries   []entry
	isLoading bool
	ready     bool
	width     int
	height    int
}

// NewModel builds the chat model over an initialized session.
func NewModel(sess *session.Session, cfg config.ChatConfig, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask me anything... (Enter to send, Ctrl+C to exit)"
	ti.Prompt = "> "
	ti.PromptStyle = styles.Prompt
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Thinking

	vp := viewport.New(80, 20)

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(78))
	if err != nil {
		renderer = nil
	}

	m := Model{
		sess:     sess,
		cfg:      cfg,
		log:      log,
		styles:   styles,
		renderer: renderer,
		input:    ti,
		viewport: vp,
		spinner:  sp,
	}
	m.restoreHistory()
	return m
}

// restoreHistory seeds the display entries from the persisted
// transcript, or the configured greeting when the transcript is empty.
func (m *Model) restoreHistory() {
	history := m.sess.History()
	for _, msg := range history {
		m.entries = append(m.entries, entry{role: msg.Role, text: msg.Content})
	}
	if len(history) == 0 && m.cfg.Greeting != "" {
		m.entries = append(m.entries, entry{role: conversation.RoleAssistant, text: m.cfg.Greeting})
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		m.input.Width = msg.Width - 4
		m.ready = true
		m.viewport.SetContent(m.renderEntries())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleSubmit()
		}

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case turnDoneMsg:
		m.isLoading = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{
				role:  conversation.RoleAssistant,
				text:  DescribeError(msg.err),
				isErr: true,
			})
		} else {
			m.entries = append(m.entries, entry{
				role: conversation.RoleAssistant,
				text: msg.result.Reply,
				recs: msg.result.Recommendations,
			})
		}
		m.viewport.SetContent(m.renderEntries())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleSubmit starts a turn from the input box. Submission is ignored
// while a turn is in flight: one call per accepted turn.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.isLoading {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	switch text {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.sess.Clear()
		m.entries = nil
		if m.cfg.Greeting != "" {
			m.entries = append(m.entries, entry{role: conversation.RoleAssistant, text: m.cfg.Greeting})
		}
		m.input.Reset()
		m.viewport.SetContent(m.renderEntries())
		return m, nil
	}

	m.entries = append(m.entries, entry{role: conversation.RoleUser, text: text})
	m.input.Reset()
	m.isLoading = true
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, m.submitTurn(text))
}

// submitTurn runs the turn off the update loop.
func (m Model) submitTurn(text string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		result, err := sess.Submit(context.Background(), text)
		return turnDoneMsg{result: result, err: err}
	}
}

// Run starts the chat program.
func Run(sess *session.Session, cfg config.ChatConfig, log *zap.Logger) error {
	p := tea.NewProgram(NewModel(sess, cfg, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
