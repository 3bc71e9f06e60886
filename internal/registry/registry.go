/*

This file contains the gauge registry: the keyed store of gauge state and
the capability-based dispatcher that advances it.

Transitions are addressed by reference, never by a hardcoded branch. Adding
a gauge is registering a transition under a new reference and adding a
gauge record that points at it; the dispatcher does not change.

*/

package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pegfield/gauged/internal/gauge"
	"github.com/pegfield/gauged/internal/logger"
	"github.com/pegfield/gauged/internal/types"
)

var (
	ErrUnknownGauge      = errors.New("gauge not registered")
	ErrUnknownTransition = errors.New("transition reference not registered")
	ErrUnauthorized      = errors.New("governance capability required")
	ErrDuplicateGauge    = errors.New("gauge already registered")
)

// Capability is an opaque governance credential. Privileged registry
// mutations require one that verifies against the configured authorizer.
type Capability struct {
	token string
}

// NewCapability wraps a governance token.
func NewCapability(token string) Capability {
	return Capability{token: token}
}

// Authorizer checks a capability before a privileged mutation.
type Authorizer interface {
	Verify(cap Capability) error
}

// TokenAuthorizer authorizes capabilities carrying the governance token.
type TokenAuthorizer struct {
	Token string
}

func (a TokenAuthorizer) Verify(cap Capability) error {
	if a.Token == "" || cap.token != a.Token {
		return ErrUnauthorized
	}
	return nil
}

// Registry holds every gauge's committed state and the capability table of
// transition functions. Reads may come from the web layer concurrently with
// the season sweep, so access is guarded; transitions themselves stay pure.
type Registry struct {
	mu          sync.RWMutex
	gauges      map[types.GaugeID]types.Gauge
	transitions map[string]gauge.TransitionFunc
	auth        Authorizer
	logger      zerolog.Logger
}

// New creates a registry seeded with the built-in transition table.
func New(auth Authorizer) *Registry {
	r := &Registry{
		gauges:      make(map[types.GaugeID]types.Gauge),
		transitions: make(map[string]gauge.TransitionFunc),
		auth:        auth,
		logger:      logger.GetForComponent("gauge_registry"),
	}
	for ref, fn := range gauge.Transitions {
		r.transitions[ref] = fn
	}
	return r
}

// RegisterTransition installs a transition capability under ref. This is
// compile-time wiring for new gauge implementations, not a governed
// operation; gauges only become live through Add/Replace.
func (r *Registry) RegisterTransition(ref string, fn gauge.TransitionFunc) error {
	if ref == "" || fn == nil {
		return fmt.Errorf("transition registration requires a ref and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[ref] = fn
	return nil
}

// Load installs previously committed gauges without an authorization check.
// It is used at startup to restore persisted state.
func (r *Registry) Load(gauges []types.Gauge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range gauges {
		if _, ok := r.transitions[g.TransitionRef]; !ok {
			return fmt.Errorf("%w: %s (gauge %s)", ErrUnknownTransition, g.TransitionRef, g.ID)
		}
		r.gauges[g.ID] = g
	}
	return nil
}

// Get returns a gauge by ID.
func (r *Registry) Get(id types.GaugeID) (types.Gauge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gauges[id]
	if !ok {
		return types.Gauge{}, fmt.Errorf("%w: %s", ErrUnknownGauge, id)
	}
	return g, nil
}

// GetValue returns a gauge's committed value payload.
func (r *Registry) GetValue(id types.GaugeID) (types.GaugePayload, error) {
	g, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return g.Value, nil
}

// GetData returns a gauge's committed data payload.
func (r *Registry) GetData(id types.GaugeID) (types.GaugePayload, error) {
	g, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return g.Data, nil
}

// IDs returns the registered gauge IDs in sweep order.
func (r *Registry) IDs() []types.GaugeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]types.GaugeID, 0, len(r.gauges))
	for _, id := range types.ActiveGaugeIDs {
		if _, ok := r.gauges[id]; ok {
			ids = append(ids, id)
		}
	}
	// Gauges added beyond the built-in set sweep after them, ordered by ID
	// so every sweep commits and audits in the same sequence.
	var extras []types.GaugeID
	for id := range r.gauges {
		if !isBuiltin(id) {
			extras = append(extras, id)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(ids, extras...)
}

func isBuiltin(id types.GaugeID) bool {
	for _, b := range types.ActiveGaugeIDs {
		if b == id {
			return true
		}
	}
	return false
}

// ComputeResult runs a gauge's transition against a snapshot without
// touching stored state. Used for previews and tests.
func (r *Registry) ComputeResult(g types.Gauge, snap types.SystemSnapshot) (gauge.Result, error) {
	r.mu.RLock()
	fn, ok := r.transitions[g.TransitionRef]
	r.mu.RUnlock()
	if !ok {
		return gauge.Result{}, fmt.Errorf("%w: %s (gauge %s)", ErrUnknownTransition, g.TransitionRef, g.ID)
	}
	return fn(g.Value, g.Data, snap)
}

// ComputeResultByID loads the current state for id and delegates to its
// transition capability. Pure with respect to storage.
func (r *Registry) ComputeResultByID(id types.GaugeID, snap types.SystemSnapshot) (gauge.Result, error) {
	g, err := r.Get(id)
	if err != nil {
		return gauge.Result{}, err
	}
	return r.ComputeResult(g, snap)
}

// Commit applies a computed result to the in-memory gauge state. The caller
// is responsible for having persisted the result first; value and data are
// always applied together.
func (r *Registry) Commit(id types.GaugeID, res gauge.Result, season uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGauge, id)
	}
	g.Value = res.Value
	g.Data = res.Data
	g.LastSeason = season
	r.gauges[id] = g
	return nil
}

// Add registers a new gauge. Privileged.
func (r *Registry) Add(cap Capability, g types.Gauge) error {
	if err := r.auth.Verify(cap); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gauges[g.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGauge, g.ID)
	}
	if _, ok := r.transitions[g.TransitionRef]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransition, g.TransitionRef)
	}
	r.gauges[g.ID] = g
	r.logger.Info().Str("gauge", string(g.ID)).Str("transition", g.TransitionRef).Msg("Gauge added")
	return nil
}

// Replace swaps a gauge's state and transition reference. Privileged.
func (r *Registry) Replace(cap Capability, g types.Gauge) error {
	if err := r.auth.Verify(cap); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gauges[g.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGauge, g.ID)
	}
	if _, ok := r.transitions[g.TransitionRef]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransition, g.TransitionRef)
	}
	r.gauges[g.ID] = g
	r.logger.Info().Str("gauge", string(g.ID)).Str("transition", g.TransitionRef).Msg("Gauge replaced")
	return nil
}

// Remove deletes a gauge. Privileged; an administrative operation, never
// part of the season sweep.
func (r *Registry) Remove(cap Capability, id types.GaugeID) error {
	if err := r.auth.Verify(cap); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gauges[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGauge, id)
	}
	delete(r.gauges, id)
	r.logger.Warn().Str("gauge", string(id)).Msg("Gauge removed")
	return nil
}

// Snapshot returns a copy of every registered gauge, in sweep order.
func (r *Registry) Snapshot() []types.Gauge {
	ids := r.IDs()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Gauge, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.gauges[id])
	}
	return out
}
