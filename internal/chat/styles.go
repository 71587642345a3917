package chat

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles groups the lipgloss styles used by the chat view.
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	ErrorText      lipgloss.Style
	RecName        lipgloss.Style
	RecReason      lipgloss.Style
	RecURL         lipgloss.Style
	Thinking       lipgloss.Style
	Help           lipgloss.Style
	Prompt         lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		UserText:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		ErrorText:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		RecName:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		RecReason:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		RecURL:         lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true),
		Thinking:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		Help:           lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Prompt:         lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	}
}
