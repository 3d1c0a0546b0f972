package views

import (
	"slices"
	"sync"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

const (
	// DefaultPulseStep is the progress added per Tick.
	DefaultPulseStep = 10
	pulseComplete    = 100

	// NodeDNS and NodeUpstream name the fixed nodes of the network diagram.
	NodeDNS      = "dns"
	NodeUpstream = "upstream"
)

// Animation is one in-flight pulse between two diagram nodes.
type Animation struct {
	ID       uint64
	Source   string
	Target   string
	Progress int
}

// PulseBoard keeps the animation bookkeeping for pulse events.
//
// Flags map to hops: client is the query from the client IP to the resolver,
// dns is the answer back to the client, upstream is the resolver going to
// its upstream.
type PulseBoard struct {
	step int

	mu     sync.Mutex
	seq    uint64
	active []Animation
}

// NewPulseBoard creates a board advancing by step per tick.
func NewPulseBoard(step int) *PulseBoard {
	if step <= 0 {
		step = DefaultPulseStep
	}
	return &PulseBoard{step: step}
}

// Apply starts one animation per flagged hop and returns how many started.
func (b *PulseBoard) Apply(e domain.PulseEvent) int {
	if !e.Any() {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	start := func(src, dst string) {
		b.seq++
		b.active = append(b.active, Animation{ID: b.seq, Source: src, Target: dst})
		n++
	}
	if e.Client && e.IP != "" {
		start(e.IP, NodeDNS)
	}
	if e.DNS && e.IP != "" {
		start(NodeDNS, e.IP)
	}
	if e.Upstream {
		start(NodeDNS, NodeUpstream)
	}
	return n
}

// Tick advances every animation and discards those that completed.
func (b *PulseBoard) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.active {
		b.active[i].Progress += b.step
	}
	b.active = slices.DeleteFunc(b.active, func(a Animation) bool { return a.Progress >= pulseComplete })
}

// Active returns the animations still running.
func (b *PulseBoard) Active() []Animation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.active)
}
