// Package profile derives lightweight user context from message text.
// Everything here is heuristic and best-effort: it enriches the
// outbound payload but never gates the correctness of a turn.
package profile

import (
	"regexp"
	"strings"
	"time"
)

// Question is one past user question with its submission time.
type Question struct {
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

// UserContext is the derived user state sent alongside the transcript.
type UserContext struct {
	Name          string     `json:"name,omitempty"`
	PastQuestions []Question `json:"pastQuestions,omitempty"`
}

// namePattern matches a literal self-introduction ("my name is X",
// "I'm X", "I am X") and captures up to two following words.
var namePattern = regexp.MustCompile(`(?i)\b(?:my name is|i['’]m|i am)\s+([a-zA-Z][a-zA-Z'-]*(?:\s+[a-zA-Z][a-zA-Z'-]*)?)`)

// nonNames are words that commonly follow "I'm"/"I am" without being a
// name. The filter keeps the heuristic from latching onto phrases like
// "I am looking for a serum".
var nonNames = map[string]bool{
	"a": true, "an": true, "the": true, "not": true, "just": true,
	"so": true, "very": true, "really": true, "sure": true,
	"sorry": true, "afraid": true, "here": true, "new": true,
	"going": true, "looking": true, "trying": true, "wondering": true,
	"interested": true, "having": true, "getting": true, "curious": true,
}

// ExtractName scans text for a name-introduction phrase and returns the
// title-cased name. It is best-effort: no match is a normal outcome,
// and it never fails on arbitrary input.
func ExtractName(text string) (string, bool) {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	words := strings.Fields(m[1])
	if len(words) == 0 || nonNames[strings.ToLower(words[0])] {
		return "", false
	}
	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " "), true
}

func titleCase(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}
