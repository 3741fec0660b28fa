package autothread

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownPlaceholder is returned when a template names a placeholder that
// has no resolver.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// Placeholder is a {name} token recognized in title and reply templates.
type Placeholder string

const (
	PlaceholderUsername    Placeholder = "username"
	PlaceholderDisplayName Placeholder = "displayName"
	PlaceholderTag         Placeholder = "tag"
	PlaceholderContent50   Placeholder = "content50"
	PlaceholderContent100  Placeholder = "content100"
	PlaceholderChannel     Placeholder = "channel"
)

// Placeholders lists every recognized placeholder.
var Placeholders = []Placeholder{
	PlaceholderUsername,
	PlaceholderDisplayName,
	PlaceholderTag,
	PlaceholderContent50,
	PlaceholderContent100,
	PlaceholderChannel,
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

func (p Placeholder) resolve(m Message) (string, bool) {
	switch p {
	case PlaceholderUsername:
		return m.AuthorUsername, true
	case PlaceholderDisplayName:
		return m.AuthorDisplayName, true
	case PlaceholderTag:
		return m.AuthorTag, true
	case PlaceholderContent50:
		return firstRunes(strings.TrimSpace(m.Content), 50), true
	case PlaceholderContent100:
		return firstRunes(strings.TrimSpace(m.Content), 100), true
	case PlaceholderChannel:
		return m.ChannelName, true
	}
	return "", false
}

// ValidateTemplate rejects templates that name an unknown placeholder.
func ValidateTemplate(template string) error {
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := Placeholder(match[1]).resolve(Message{}); !ok {
			return fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, match[1])
		}
	}
	return nil
}

// PlaceholderHelp renders the recognized placeholders for user-facing help.
func PlaceholderHelp() string {
	names := make([]string, len(Placeholders))
	for i, p := range Placeholders {
		names[i] = "`{" + string(p) + "}`"
	}
	return strings.Join(names, ", ")
}

// RenderTemplate substitutes recognized placeholders. Unknown placeholders are
// left as written; ValidateTemplate keeps them out of newly stored templates.
func RenderTemplate(template string, m Message) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := Placeholder(name).resolve(m); ok {
			return v
		}
		return token
	})
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
