package pod_nav

import (
	"fmt"
	"math"
)

// MovePhase is the flight profile position of an AxisMove.
type MovePhase int

const (
	PhaseAccelerating MovePhase = iota + 1
	PhaseCruising
	PhaseStopping
	PhaseDone
)

func (p MovePhase) String() string {
	switch p {
	case PhaseAccelerating:
		return "ACCELERATING"
	case PhaseCruising:
		return "CRUISING"
	case PhaseStopping:
		return "STOPPING"
	case PhaseDone:
		return "DONE"
	default:
		return fmt.Sprintf("MovePhase(%d)", int(p))
	}
}

// AxisMove flies the pod along one axis to a destination at bounded speed,
// then hands over to a VelocityZeroer to come to rest.
type AxisMove struct {
	cfg         MoveConfig
	axis        Axis
	hover       float64
	maneuver    float64
	origin      float64
	destination float64
	phase       MovePhase
	stopper     *VelocityZeroer
	done        bool
	control     ThrusterCommand
}

// NewAxisMove constructs a move from the current position to destination.
func NewAxisMove(axis Axis, hover float64, st KinematicState, destination float64, cfg MoveConfig) (*AxisMove, error) {
	if !finite(hover) || hover <= 0 {
		return nil, &SequenceError{Personality: KindAxisMove, Requires: "hover thrust"}
	}
	if !finite(destination) {
		return nil, &InputError{Field: "destination", Value: destination}
	}
	stopper, err := NewVelocityZeroer(axis, hover, cfg.Stopper)
	if err != nil {
		return nil, err
	}

	// Maneuver thrust may not exceed the hover thrust, and hover plus maneuver
	// may not exceed the channel, so speeding up and slowing down stay balanced.
	maneuver := math.Min(cfg.ManeuverThrust, hover)
	maneuver = math.Min(maneuver, cfg.MaxChannel-hover)
	maneuver = math.Max(maneuver, 0)

	m := &AxisMove{
		cfg:         cfg,
		axis:        axis,
		hover:       hover,
		maneuver:    maneuver,
		origin:      st.Position(axis),
		destination: destination,
		phase:       PhaseAccelerating,
		stopper:     stopper,
	}
	m.control.SetVertical(hover)
	return m, nil
}

func (m *AxisMove) Kind() PersonalityKind { return KindAxisMove }

// Process advances the flight profile by one tick.
func (m *AxisMove) Process(st KinematicState) error {
	if m.done {
		return nil
	}

	remaining := m.destination - st.Position(m.axis)
	if m.phase != PhaseStopping && math.Abs(remaining) < m.cfg.StopThreshold {
		m.phase = PhaseStopping
	}

	if m.phase == PhaseStopping {
		if err := m.stopper.Process(st); err != nil {
			return err
		}
		m.control = m.stopper.Command()
		if m.stopper.Done() {
			m.phase = PhaseDone
			m.done = true
		}
		return nil
	}

	force := 0.0
	if math.Abs(st.Velocity(m.axis)) < m.cfg.MaxSpeed {
		m.phase = PhaseAccelerating
		force = sign(remaining) * m.maneuver
	} else {
		m.phase = PhaseCruising
	}

	if m.axis == AxisHorizontal {
		m.control.SetVertical(tiltedHover(m.hover, st))
		m.control.SetHorizontal(force)
	} else {
		// Positive remaining is further down, which needs less upward thrust.
		m.control.SetVertical(m.hover - force)
		m.control.SetHorizontal(0)
	}
	return nil
}

func (m *AxisMove) Command() ThrusterCommand { return m.control }

func (m *AxisMove) Done() bool { return m.done }

func (m *AxisMove) Axis() Axis { return m.axis }

func (m *AxisMove) Phase() MovePhase { return m.phase }

func (m *AxisMove) Origin() float64 { return m.origin }

func (m *AxisMove) Destination() float64 { return m.destination }

// ManeuverThrust is the bounded thrust used to speed up and slow down.
func (m *AxisMove) ManeuverThrust() float64 { return m.maneuver }
