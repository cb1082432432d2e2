package locator

import (
	"fmt"
	"strings"
)

// Kind tags how a Strategy builds its selector.
type Kind int

const (
	// KindRoleText matches an element of a role or tag containing text.
	KindRoleText Kind = iota
	// KindAttribute matches on a single attribute predicate.
	KindAttribute
	// KindTag is a raw structural selector.
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindRoleText:
		return "role_text"
	case KindAttribute:
		return "attribute"
	case KindTag:
		return "tag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Attribute predicate operators.
const (
	OpPresent  = ""
	OpEquals   = "="
	OpContains = "*="
	OpPrefix   = "^="
	OpSuffix   = "$="
)

// Strategy is one way of finding a control.
type Strategy struct {
	Kind Kind

	// KindRoleText
	Role string
	Text string

	// KindAttribute
	Tag   string
	Attr  string
	Op    string
	Value string

	// KindTag
	Pattern string
}

// RoleText matches role elements whose text contains text. An empty role
// matches any element.
func RoleText(role, text string) Strategy {
	return Strategy{Kind: KindRoleText, Role: role, Text: text}
}

// Attribute matches tag[attr op "value"]. An empty tag matches any element
// and OpPresent ignores value.
func Attribute(tag, attr, op, value string) Strategy {
	return Strategy{Kind: KindAttribute, Tag: tag, Attr: attr, Op: op, Value: value}
}

// Tag wraps a raw selector.
func Tag(pattern string) Strategy {
	return Strategy{Kind: KindTag, Pattern: pattern}
}

// Selector renders the strategy in the automation engine's selector syntax.
func (s Strategy) Selector() string {
	switch s.Kind {
	case KindRoleText:
		if s.Role == "" {
			return "text=" + quote(s.Text)
		}
		return fmt.Sprintf("%s:has-text(%s)", s.Role, quote(s.Text))
	case KindAttribute:
		if s.Op == OpPresent {
			return fmt.Sprintf("%s[%s]", s.Tag, s.Attr)
		}
		return fmt.Sprintf("%s[%s%s%s]", s.Tag, s.Attr, s.Op, quote(s.Value))
	default:
		return s.Pattern
	}
}

func (s Strategy) String() string {
	return s.Kind.String() + " " + s.Selector()
}

func quote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// Control names a logical page element and the ordered strategies that find it.
type Control struct {
	Name       string
	Strategies []Strategy
}
