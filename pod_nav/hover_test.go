package pod_nav

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHoverSearch(t *testing.T, p *testPlant, cfg HoverConfig, dt float64) (*HoverFinder, []float64) {
	t.Helper()
	tr := NewStateTracker(cfg.ZeroThreshold)
	h := NewHoverFinder(cfg)
	var steps []float64
	for i := 0; i < 1000 && !h.Done(); i++ {
		st, err := tr.Update(p.state(), dt)
		require.NoError(t, err)
		require.NoError(t, h.Process(st))
		steps = append(steps, h.Step())
		p.step(h.Command(), dt)
	}
	return h, steps
}

func TestHoverFinderConverges(t *testing.T) {
	cfg := DefaultPilotConfig().Hover
	bound := int(math.Ceil(4 * math.Log2(cfg.InitialStep/cfg.ZeroThreshold)))

	cases := []struct {
		name string
		g, k float64
		dt   float64
	}{
		{"default plant", 4, 20, 0.1},
		{"default plant fine dt", 4, 20, 0.02},
		{"earth gravity", 9.81, 10, 0.05},
		{"weak thrust", 1, 3, 0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := newTestPlant(100, 100)
			p.g, p.k = tc.g, tc.k

			h, _ := runHoverSearch(t, p, cfg, tc.dt)

			require.True(t, h.Done())
			assert.LessOrEqual(t, h.Ticks(), bound)
			assert.InDelta(t, tc.g/tc.k, h.Thrust(), 1e-3)
		})
	}
}

func TestHoverFinderStepNeverGrows(t *testing.T) {
	_, steps := runHoverSearch(t, newTestPlant(0, 0), DefaultPilotConfig().Hover, 0.1)
	require.NotEmpty(t, steps)
	for i := 1; i < len(steps); i++ {
		assert.LessOrEqual(t, steps[i], steps[i-1], "tick %d", i)
	}
}

func TestHoverFinderFrozenWhenDone(t *testing.T) {
	h := NewHoverFinder(DefaultPilotConfig().Hover)
	require.NoError(t, h.Process(KinematicState{Accel: 0, PrevAccel: 1}))
	require.True(t, h.Done())

	before := h.Command()
	require.NoError(t, h.Process(KinematicState{Accel: 5, PrevAccel: -5}))
	if diff := cmp.Diff(before, h.Command()); diff != "" {
		t.Errorf("command changed after done (-before +after):\n%s", diff)
	}
	assert.Equal(t, 1, h.Ticks())
}

func TestHoverFinderHalvesOnSignFlip(t *testing.T) {
	h := NewHoverFinder(HoverConfig{InitialStep: 0.5, ZeroThreshold: 1e-4})

	require.NoError(t, h.Process(KinematicState{Accel: 1, PrevAccel: 1}))
	assert.Equal(t, 0.5, h.Thrust())
	assert.Equal(t, 0.5, h.Step())

	require.NoError(t, h.Process(KinematicState{Accel: -1, PrevAccel: 1}))
	assert.Equal(t, 0.25, h.Step())
	assert.Equal(t, 0.25, h.Thrust())
	assert.Equal(t, 0.25, h.Command().Up)
}

func TestHoverFinderErrors(t *testing.T) {
	t.Run("non-finite acceleration", func(t *testing.T) {
		h := NewHoverFinder(DefaultPilotConfig().Hover)
		err := h.Process(KinematicState{Accel: math.NaN()})
		var inErr *InputError
		require.ErrorAs(t, err, &inErr)
		assert.Equal(t, "accel", inErr.Field)
	})

	t.Run("tick bound", func(t *testing.T) {
		cfg := DefaultPilotConfig().Hover
		cfg.MaxTicks = 3
		h := NewHoverFinder(cfg)
		for i := 0; i < 3; i++ {
			require.NoError(t, h.Process(KinematicState{Accel: 1, PrevAccel: 1}))
		}
		err := h.Process(KinematicState{Accel: 1, PrevAccel: 1})
		assert.True(t, errors.Is(err, ErrSearchExhausted))
		assert.False(t, h.Done())
	})
}

func TestHoverFinderLinearPlant(t *testing.T) {
	cfg := DefaultPilotConfig().Hover
	bound := int(math.Ceil(4 * math.Log2(cfg.InitialStep/cfg.ZeroThreshold)))

	for _, plant := range []struct{ g, k float64 }{{4, 20}, {9.81, 10}, {1, 3}, {3, 7}} {
		h := NewHoverFinder(cfg)
		prev := 10 * cfg.ZeroThreshold
		for i := 0; i < 1000 && !h.Done(); i++ {
			accel := plant.g - plant.k*h.Thrust()
			require.NoError(t, h.Process(KinematicState{Accel: accel, PrevAccel: prev}))
			prev = accel
		}
		require.True(t, h.Done(), "g=%v k=%v", plant.g, plant.k)
		assert.LessOrEqual(t, h.Ticks(), bound)
		assert.Less(t, math.Abs(plant.g-plant.k*h.Thrust()), cfg.ZeroThreshold)
	}
}
