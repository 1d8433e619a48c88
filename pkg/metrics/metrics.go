// Package metrics keeps an in-process snapshot registry of dashboard
// activity: per-endpoint latency and status, guard decisions, flag fetch
// outcomes and login attempts. Exposed as JSON on an admin-only endpoint.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type Registry struct {
	mu            sync.RWMutex
	endpoint      map[string]*EndpointStat
	guardDecision map[string]int64
	guardReason   map[string]int64
	flagFetch     map[string]int64
	loginOutcome  map[string]int64
	upstreamError map[string]int64
}

type EndpointStat struct {
	Count          int64   `json:"count"`
	ErrorCount     int64   `json:"error_count"`
	TotalMillis    int64   `json:"total_millis"`
	MaxMillis      int64   `json:"max_millis"`
	AverageMillis  float64 `json:"average_millis"`
	LastStatusCode int     `json:"last_status_code"`
}

type Snapshot struct {
	GeneratedAt    string                  `json:"generated_at"`
	Endpoints      map[string]EndpointStat `json:"endpoints"`
	GuardDecisions map[string]int64        `json:"guard_decisions"`
	GuardReasons   map[string]int64        `json:"guard_reasons"`
	FlagFetches    map[string]int64        `json:"flag_fetches"`
	LoginOutcomes  map[string]int64        `json:"login_outcomes"`
	UpstreamErrors map[string]int64        `json:"upstream_errors"`
}

func NewRegistry() *Registry {
	return &Registry{
		endpoint:      map[string]*EndpointStat{},
		guardDecision: map[string]int64{},
		guardReason:   map[string]int64{},
		flagFetch:     map[string]int64{},
		loginOutcome:  map[string]int64{},
		upstreamError: map[string]int64{},
	}
}

func (r *Registry) Observe(path string, status int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stat, ok := r.endpoint[path]
	if !ok {
		stat = &EndpointStat{}
		r.endpoint[path] = stat
	}
	ms := d.Milliseconds()
	stat.Count++
	stat.TotalMillis += ms
	if ms > stat.MaxMillis {
		stat.MaxMillis = ms
	}
	stat.AverageMillis = float64(stat.TotalMillis) / float64(stat.Count)
	stat.LastStatusCode = status
	if status >= 400 {
		stat.ErrorCount++
	}
}

// IncGuard records one guard decision keyed by policy and state.
func (r *Registry) IncGuard(policy, state, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guardDecision[policy+":"+state]++
	r.guardReason[reason]++
}

// IncFlagFetch records a flag resolution outcome ("ok" or "error").
func (r *Registry) IncFlagFetch(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flagFetch[outcome]++
}

// IncLogin records a login outcome ("ok", "rejected", "rate_limited", "error").
func (r *Registry) IncLogin(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loginOutcome[outcome]++
}

// IncUpstreamError records a backend error by class.
func (r *Registry) IncUpstreamError(class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upstreamError[class]++
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := Snapshot{
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		Endpoints:      make(map[string]EndpointStat, len(r.endpoint)),
		GuardDecisions: make(map[string]int64, len(r.guardDecision)),
		GuardReasons:   make(map[string]int64, len(r.guardReason)),
		FlagFetches:    make(map[string]int64, len(r.flagFetch)),
		LoginOutcomes:  make(map[string]int64, len(r.loginOutcome)),
		UpstreamErrors: make(map[string]int64, len(r.upstreamError)),
	}
	for k, v := range r.endpoint {
		out.Endpoints[k] = *v
	}
	for k, v := range r.guardDecision {
		out.GuardDecisions[k] = v
	}
	for k, v := range r.guardReason {
		out.GuardReasons[k] = v
	}
	for k, v := range r.flagFetch {
		out.FlagFetches[k] = v
	}
	for k, v := range r.loginOutcome {
		out.LoginOutcomes[k] = v
	}
	for k, v := range r.upstreamError {
		out.UpstreamErrors[k] = v
	}
	return out
}

func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		snap := r.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
	}
}
