package service

import "smart-planner/modules/planner/entity"

// Matcher pairs a proposed entry with the existing event it should update.
type Matcher interface {
	Match(entry entity.OptimizedEntry, current []entity.Event) (entity.Event, bool)
}

// MatcherFunc adapts a plain function to Matcher
type MatcherFunc func(entry entity.OptimizedEntry, current []entity.Event) (entity.Event, bool)

func (f MatcherFunc) Match(entry entity.OptimizedEntry, current []entity.Event) (entity.Event, bool) {
	return f(entry, current)
}

// TitleMatcher matches on exact, case-sensitive title equality. When several
// current events share the title, the last one in the snapshot wins.
type TitleMatcher struct{}

func (TitleMatcher) Match(entry entity.OptimizedEntry, current []entity.Event) (entity.Event, bool) {
	for i := len(current) - 1; i >= 0; i-- {
		if current[i].Title == entry.Title {
			return current[i], true
		}
	}
	return entity.Event{}, false
}
