package pod_nav

import (
	"math"
)

// VelocityZeroer brings one velocity axis to rest on top of the hover thrust.
type VelocityZeroer struct {
	cfg      StopperConfig
	axis     Axis
	hover    float64
	step     float64
	maneuver float64
	done     bool
	control  ThrusterCommand
}

// NewVelocityZeroer constructs a zeroer. hover must already be known.
func NewVelocityZeroer(axis Axis, hover float64, cfg StopperConfig) (*VelocityZeroer, error) {
	if !finite(hover) || hover <= 0 {
		return nil, &SequenceError{Personality: KindVelocityZeroer, Requires: "hover thrust"}
	}
	z := &VelocityZeroer{cfg: cfg, axis: axis, hover: hover, step: cfg.InitialStep}
	z.control.SetVertical(hover)
	return z, nil
}

func (z *VelocityZeroer) Kind() PersonalityKind { return KindVelocityZeroer }

// Process applies one tick of opposing thrust.
func (z *VelocityZeroer) Process(st KinematicState) error {
	if z.done {
		return nil
	}
	if err := checkTimestep(st.DT); err != nil {
		return err
	}

	v := st.Velocity(z.axis)
	if math.Abs(v) < z.cfg.ZeroThreshold {
		z.done = true
		z.maneuver = 0
	} else {
		// Deceleration this strong would zero v in under OvershootTicks ticks.
		if math.Abs(st.Acceleration(z.axis)/st.DT)/z.cfg.OvershootTicks >= math.Abs(v) {
			z.step /= 2
		}
		z.maneuver = sign(v) * z.step
	}

	z.apply(st)
	return nil
}

func (z *VelocityZeroer) apply(st KinematicState) {
	if z.axis == AxisHorizontal {
		z.control.SetVertical(tiltedHover(z.hover, st))
		z.control.SetHorizontal(-z.maneuver)
		return
	}
	z.control.SetVertical(z.hover + z.maneuver)
	z.control.SetHorizontal(0)
}

func (z *VelocityZeroer) Command() ThrusterCommand { return z.control }

func (z *VelocityZeroer) Done() bool { return z.done }

// Step is the current correction magnitude.
func (z *VelocityZeroer) Step() float64 { return z.step }

// tiltedHover scales the hover thrust so its vertical component still
// cancels gravity while the pod is tilted.
func tiltedHover(hover float64, st KinematicState) float64 {
	return hover / math.Cos(st.Tilt())
}
