package chat

import (
	"strings"

	"glowchat/internal/conversation"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if m.isLoading {
		sb.WriteString(m.spinner.View())
		sb.WriteString(m.styles.Thinking.Render("Thinking..."))
	} else {
		sb.WriteString(m.input.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("/clear wipe history  ·  /quit exit"))
	return sb.String()
}

func (m Model) renderEntries() string {
	var sb strings.Builder
	for _, e := range m.entries {
		switch {
		case e.isErr:
			sb.WriteString(m.styles.AssistantLabel.Render("glowchat") + "\n")
			sb.WriteString(m.styles.ErrorText.Render(e.text))
			sb.WriteString("\n\n")
		case e.role == conversation.RoleUser:
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserText.Render(e.text))
			sb.WriteString("\n\n")
		default:
			sb.WriteString(m.styles.AssistantLabel.Render("glowchat") + "\n")
			sb.WriteString(m.renderMarkdown(e.text))
			sb.WriteString("\n")
			for _, rec := range e.recs {
				sb.WriteString(m.renderRecommendation(rec))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}
