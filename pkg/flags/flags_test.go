package flags

import (
	"context"
	"errors"
	"testing"
)

type stubSource struct {
	entries []Entry
	err     error
}

func (s *stubSource) Configuration(ctx context.Context, token string) ([]Entry, error) {
	return s.entries, s.err
}

func TestReduce(t *testing.T) {
	set := Reduce([]Entry{
		{Code: "SEND_MESSAGE", IsActive: true},
		{Code: "SHOW_LEADER_BOARD", IsActive: false},
	})
	if !set.Enabled(SendMessage) {
		t.Fatal("SEND_MESSAGE should be on")
	}
	if set.Enabled(ShowLeaderBoard) {
		t.Fatal("SHOW_LEADER_BOARD should be off")
	}
}

func TestReduceUnknownCodePassesThrough(t *testing.T) {
	set := Reduce([]Entry{{Code: "SHOW_NEW_THING", IsActive: true}})
	if !set.Enabled(Code("SHOW_NEW_THING")) {
		t.Fatal("unknown code should survive the reduction")
	}
}

func TestEnabledAbsentIsFalse(t *testing.T) {
	set := Reduce(nil)
	if set.Enabled(SendMessage) {
		t.Fatal("absent code must read false")
	}
	var nilSet Set
	if nilSet.Enabled(SendMessage) {
		t.Fatal("nil set must read false")
	}
}

func TestReduceLastEntryWins(t *testing.T) {
	set := Reduce([]Entry{
		{Code: "SEND_MESSAGE", IsActive: true},
		{Code: "SEND_MESSAGE", IsActive: false},
	})
	if set.Enabled(SendMessage) {
		t.Fatal("duplicate codes: last entry should win")
	}
}

func TestFetchReducesSource(t *testing.T) {
	r := &Resolver{Source: &stubSource{entries: []Entry{{Code: "SHOW_ALL_MESSAGE", IsActive: true}}}}
	set, err := r.Fetch(context.Background(), "tok")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !set.Enabled(ShowAllMessage) {
		t.Fatal("fetched set should carry the active flag")
	}
}

func TestFetchFailureReturnsNilSet(t *testing.T) {
	boom := errors.New("backend down")
	r := &Resolver{Source: &stubSource{err: boom}}
	set, err := r.Fetch(context.Background(), "tok")
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if set != nil {
		t.Fatalf("failed fetch must not return a set, got %v", set)
	}
	// Fail closed: every gate reads disabled.
	if set.Enabled(SendMessage) || set.Enabled(ShowLeaderBoard) {
		t.Fatal("nil set must gate everything off")
	}
}
