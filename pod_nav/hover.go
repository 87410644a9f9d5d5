package pod_nav

import (
	"fmt"
	"math"
)

// HoverFinder searches for the thrust that cancels gravity.
//
// The estimate walks toward zero acceleration by a fixed step and the step is
// halved each time the sign of the acceleration flips between ticks.
type HoverFinder struct {
	cfg     HoverConfig
	thrust  float64
	step    float64
	ticks   int
	done    bool
	control ThrusterCommand
}

// NewHoverFinder constructs a finder starting at cfg.InitialThrust.
func NewHoverFinder(cfg HoverConfig) *HoverFinder {
	h := &HoverFinder{cfg: cfg, thrust: cfg.InitialThrust, step: cfg.InitialStep}
	h.control.SetVertical(h.thrust)
	return h
}

func (h *HoverFinder) Kind() PersonalityKind { return KindHoverFinder }

// Process consumes one acceleration sample.
func (h *HoverFinder) Process(st KinematicState) error {
	if h.done {
		return nil
	}
	if !finite(st.Accel) || !finite(st.PrevAccel) {
		return &InputError{Field: "accel", Value: st.Accel}
	}
	if h.cfg.MaxTicks > 0 && h.ticks >= h.cfg.MaxTicks {
		return fmt.Errorf("after %d ticks, thrust=%.6f: %w", h.ticks, h.thrust, ErrSearchExhausted)
	}
	h.ticks++

	accel := st.Accel
	switch {
	case math.Abs(accel) < h.cfg.ZeroThreshold:
		h.done = true
	case accel > 0:
		// Falling: more thrust. A flip from rising means the last step overshot.
		if st.PrevAccel < 0 {
			h.step /= 2
		}
		h.thrust += h.step
	default:
		if st.PrevAccel > 0 {
			h.step /= 2
		}
		h.thrust -= h.step
	}

	h.control.SetVertical(h.thrust)
	return nil
}

func (h *HoverFinder) Command() ThrusterCommand { return h.control }

func (h *HoverFinder) Done() bool { return h.done }

// Thrust is the current estimate; authoritative once Done is true.
func (h *HoverFinder) Thrust() float64 { return h.thrust }

// Step is the current search step.
func (h *HoverFinder) Step() float64 { return h.step }

// Ticks counts processed samples.
func (h *HoverFinder) Ticks() int { return h.ticks }
