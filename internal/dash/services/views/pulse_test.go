package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

func TestPulseBoard_ApplyAndTick(t *testing.T) {
	b := NewPulseBoard(50)

	n := b.Apply(domain.PulseEvent{Client: true, Upstream: true, IP: "10.0.0.5"})
	assert.Equal(t, 2, n)

	active := b.Active()
	require.Len(t, active, 2)
	assert.Equal(t, Animation{ID: 1, Source: "10.0.0.5", Target: NodeDNS}, active[0])
	assert.Equal(t, Animation{ID: 2, Source: NodeDNS, Target: NodeUpstream}, active[1])

	b.Tick()
	assert.Equal(t, 50, b.Active()[0].Progress)

	b.Apply(domain.PulseEvent{DNS: true, IP: "10.0.0.6"})
	b.Tick()
	active = b.Active()
	require.Len(t, active, 1)
	assert.Equal(t, Animation{ID: 3, Source: NodeDNS, Target: "10.0.0.6", Progress: 50}, active[0])

	b.Tick()
	assert.Empty(t, b.Active())
}

func TestPulseBoard_IgnoresEmptyEvents(t *testing.T) {
	b := NewPulseBoard(0)
	assert.Zero(t, b.Apply(domain.PulseEvent{IP: "10.0.0.5"}))
	assert.Zero(t, b.Apply(domain.PulseEvent{Client: true}))
	assert.Empty(t, b.Active())

	b.Apply(domain.PulseEvent{Upstream: true})
	for i := 0; i < 9; i++ {
		b.Tick()
	}
	require.Len(t, b.Active(), 1)
	assert.Equal(t, 90, b.Active()[0].Progress)
	b.Tick()
	assert.Empty(t, b.Active())
}
