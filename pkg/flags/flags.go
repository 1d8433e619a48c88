// Package flags resolves the admin-configurable feature switches that gate
// optional dashboard functionality. A set is fetched fresh per request and
// never shared: two views rendered concurrently may observe different
// snapshots, which is accepted staleness, not a bug.
package flags

import "context"

// Code names one feature switch.
type Code string

// Known codes. Unknown codes returned by the backend pass through unchanged
// so new switches work without a dashboard release.
const (
	SendMessage           Code = "SEND_MESSAGE"
	ShowAllMessage        Code = "SHOW_ALL_MESSAGE"
	ShowIndividualMessage Code = "SHOW_INDIVIDUAL_MESSAGE"
	ShowLeaderBoard       Code = "SHOW_LEADER_BOARD"
)

// Entry is one configuration record as the backend returns it.
type Entry struct {
	Code     string `json:"code"`
	IsActive bool   `json:"is_active"`
}

// Set maps flag codes to their state. A nil Set means "not yet loaded",
// which callers must treat differently from "all false".
type Set map[Code]bool

// Enabled reports a flag's state; absent codes are false, never an error.
func (s Set) Enabled(code Code) bool {
	if s == nil {
		return false
	}
	return s[code]
}

// Reduce folds a configuration list into a Set.
func Reduce(entries []Entry) Set {
	set := make(Set, len(entries))
	for _, e := range entries {
		set[Code(e.Code)] = e.IsActive
	}
	return set
}

// Source is the backend surface the resolver reads from.
type Source interface {
	Configuration(ctx context.Context, token string) ([]Entry, error)
}

// Resolver fetches and normalizes the flag set.
type Resolver struct {
	Source Source
}

// Fetch returns a fresh snapshot. On failure it returns a nil Set along
// with the error: callers fail closed, hiding optional functionality and
// surfacing a non-fatal notice instead of guessing a flag is on.
func (r *Resolver) Fetch(ctx context.Context, token string) (Set, error) {
	entries, err := r.Source.Configuration(ctx, token)
	if err != nil {
		return nil, err
	}
	return Reduce(entries), nil
}
