package locator

import (
	"log/slog"

	"autopost/internal/browser"
	"autopost/internal/logging"
)

// Match is one resolved element and the strategy that found it.
type Match struct {
	Element  browser.Element
	Strategy Strategy
	// Index is the strategy's position within the control.
	Index int
	Scope string
}

// Locator resolves controls against browser scopes.
type Locator struct {
	logger *slog.Logger
}

// New returns a Locator that logs query failures at debug level.
func New(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Locator{logger: logging.NewComponentLogger(logger, "locator")}
}

// Scopes returns the session's searchable documents, main document first.
func Scopes(session browser.Session) []browser.Scope {
	if session == nil {
		return nil
	}
	return session.Scopes()
}

// Find returns the first attached element matching control.
func (l *Locator) Find(scopes []browser.Scope, control Control) (Match, bool) {
	var found Match
	ok := false
	l.walk(scopes, control, func(m Match) bool {
		found, ok = m, true
		return false
	})
	return found, ok
}

// FindVisible returns the first match that is currently visible.
func (l *Locator) FindVisible(scopes []browser.Scope, control Control) (Match, bool) {
	var found Match
	ok := false
	l.walk(scopes, control, func(m Match) bool {
		if visible, err := m.Element.IsVisible(); err == nil && visible {
			found, ok = m, true
			return false
		}
		return true
	})
	return found, ok
}

// All returns every match in strategy order, then scope order, then document
// order. The same element may appear more than once when several strategies
// find it.
func (l *Locator) All(scopes []browser.Scope, control Control) []Match {
	var matches []Match
	l.walk(scopes, control, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

func (l *Locator) walk(scopes []browser.Scope, control Control, visit func(Match) bool) {
	for idx, strategy := range control.Strategies {
		selector := strategy.Selector()
		for _, scope := range scopes {
			elements, err := scope.QueryAll(selector)
			if err != nil {
				l.logger.Debug("selector query failed",
					logging.String("control", control.Name),
					logging.String("selector", selector),
					logging.String("scope", scope.Name()),
					logging.Error(err),
				)
				continue
			}
			for _, el := range elements {
				if !visit(Match{Element: el, Strategy: strategy, Index: idx, Scope: scope.Name()}) {
					return
				}
			}
		}
	}
}
