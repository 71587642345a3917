package chat

import (
	"errors"
	"fmt"
	"strings"

	"glowchat/internal/catalog"
	"glowchat/internal/gateway"
	"glowchat/internal/session"
)

// DescribeError converts a turn failure into the single short
// human-readable string shown in place of the reply. Every failure
// kind is caught here; nothing escapes to a global handler.
func DescribeError(err error) string {
	var transport *gateway.TransportError
	var upstream *gateway.UpstreamError
	var malformed *gateway.MalformedResponseError
	var empty *gateway.EmptyReplyError

	switch {
	case errors.Is(err, session.ErrTurnInFlight):
		return "Hang on, still thinking about the last one."
	case errors.As(err, &transport):
		return "Couldn't reach the service. Check your connection and try again."
	case errors.As(err, &upstream):
		if detail := upstream.Detail(); detail != "" {
			return fmt.Sprintf("The service reported an error: %s", detail)
		}
		return fmt.Sprintf("The service reported an error (status %d). Please try again.", upstream.StatusCode)
	case errors.As(err, &malformed):
		return "The service returned an unexpected response. Please try again."
	case errors.As(err, &empty):
		return "Sorry, no response."
	}
	return "Error fetching response."
}

// FormatRecommendation renders one enriched recommendation as a plain
// line, for non-TUI output (glowchat ask).
func FormatRecommendation(rec catalog.Recommendation) string {
	var sb strings.Builder
	name := rec.Name
	if name == "" {
		name = rec.ID
	}
	sb.WriteString("  * ")
	sb.WriteString(name)
	if rec.URL != "" {
		sb.WriteString(" <" + rec.URL + ">")
	}
	if rec.Reason != "" {
		sb.WriteString(" - " + rec.Reason)
	}
	return sb.String()
}

// renderRecommendation renders one enriched recommendation bubble.
func (m Model) renderRecommendation(rec catalog.Recommendation) string {
	var sb strings.Builder
	name := rec.Name
	if name == "" {
		name = rec.ID
	}
	sb.WriteString("  " + m.styles.RecName.Render(name))
	if rec.URL != "" {
		sb.WriteString("  " + m.styles.RecURL.Render(rec.URL))
	}
	sb.WriteString("\n")
	if rec.Reason != "" {
		sb.WriteString("  " + m.styles.RecReason.Render(rec.Reason) + "\n")
	}
	return sb.String()
}
