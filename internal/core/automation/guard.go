package automation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LoopGuard is the engine's shared defensive state: a per-(automation, entity)
// cooldown map and a chain-depth counter bounding automations that trigger
// each other. Both are process-local; a multi-instance deployment would need
// externally coordinated equivalents.
type LoopGuard struct {
	mu        sync.Mutex
	cooldown  time.Duration
	maxDepth  int
	lastFired map[cooldownKey]time.Time
	depth     int
	lastSweep time.Time

	now func() time.Time
}

type cooldownKey struct {
	AutomationID uuid.UUID
	EntityID     uuid.UUID
}

// NewLoopGuard creates a loop guard with the given cooldown window and
// maximum chain depth.
func NewLoopGuard(cooldown time.Duration, maxDepth int) *LoopGuard {
	return &LoopGuard{
		cooldown:  cooldown,
		maxDepth:  maxDepth,
		lastFired: make(map[cooldownKey]time.Time),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// InCooldown reports whether the automation fired for this entity within the
// cooldown window.
func (g *LoopGuard) InCooldown(automationID, entityID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked()

	last, ok := g.lastFired[cooldownKey{automationID, entityID}]
	if !ok {
		return false
	}
	return g.now().Sub(last) < g.cooldown
}

// CheckAndStamp stamps the cooldown and reports true only if the key was not
// already inside the window. Check and stamp happen under one lock
// acquisition, so concurrent events for the same (automation, entity) resolve
// to exactly one winner. Callers stamp before running actions so a slow
// action list cannot let a duplicate event through.
func (g *LoopGuard) CheckAndStamp(automationID, entityID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := cooldownKey{automationID, entityID}
	now := g.now()
	if last, ok := g.lastFired[key]; ok && now.Sub(last) < g.cooldown {
		return false
	}
	g.lastFired[key] = now
	return true
}

// sweepLocked lazily drops entries older than twice the cooldown. Runs at
// most once per cooldown interval.
func (g *LoopGuard) sweepLocked() {
	now := g.now()
	if now.Sub(g.lastSweep) < g.cooldown {
		return
	}
	g.lastSweep = now
	for key, last := range g.lastFired {
		if now.Sub(last) > 2*g.cooldown {
			delete(g.lastFired, key)
		}
	}
}

// AtMaxDepth reports whether the chain-depth counter has reached its bound.
// Events arriving at max depth are dropped before any automation runs.
func (g *LoopGuard) AtMaxDepth() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth >= g.maxDepth
}

// EnterChain increments the chain-depth counter for the duration of an
// automation's action list. Always pair with a deferred LeaveChain.
func (g *LoopGuard) EnterChain() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.depth++
}

// LeaveChain decrements the chain-depth counter.
func (g *LoopGuard) LeaveChain() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depth > 0 {
		g.depth--
	}
}

// Depth returns the current chain depth.
func (g *LoopGuard) Depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth
}
