package pod_nav

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.einride.tech/pid"
)

// SteeringKind selects the controller that turns a target point into thrust.
type SteeringKind int

const (
	SteeringRule SteeringKind = iota + 1
	SteeringPD
)

func (k SteeringKind) String() string {
	switch k {
	case SteeringRule:
		return "RULE"
	case SteeringPD:
		return "PD"
	default:
		return fmt.Sprintf("SteeringKind(%d)", int(k))
	}
}

// ParseSteeringKind converts a controller name into a SteeringKind.
func ParseSteeringKind(value string) (SteeringKind, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "RULE":
		return SteeringRule, nil
	case "PD":
		return SteeringPD, nil
	default:
		return SteeringRule, fmt.Errorf("unknown steering %q", value)
	}
}

// UnmarshalJSON allows steering to be loaded from JSON strings.
func (k *SteeringKind) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	parsed, err := ParseSteeringKind(*raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON writes the steering name.
func (k SteeringKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// TargetController converts a target point and the current state into thrust.
type TargetController interface {
	Steer(st KinematicState, target Point, hover, dt float64) ThrusterCommand
}

// NewTargetController builds the configured controller.
func NewTargetController(cfg NavigatorConfig) TargetController {
	if cfg.Steering == SteeringPD {
		return NewPDController(cfg.PD)
	}
	return NewRuleController(cfg.Rule)
}

// RuleConfig holds the discrete thresholds of the rule controller. Thrust
// levels are multiples of the hover thrust.
type RuleConfig struct {
	BigSpeed   float64 `json:"big_speed"`
	MidSpeed   float64 `json:"mid_speed"`
	SmallSpeed float64 `json:"small_speed"`
	BigError   float64 `json:"big_error"`
	MidError   float64 `json:"mid_error"`

	ClimbFactor        float64 `json:"climb_factor"`
	BrakeDescentFactor float64 `json:"brake_descent_factor"`
	BrakeClimbFactor   float64 `json:"brake_climb_factor"`

	PropelAngle float64 `json:"propel_angle"`
	AngleKp     float64 `json:"angle_kp"`
	AngleKd     float64 `json:"angle_kd"`
}

// DefaultRuleConfig returns the hand-tuned rule thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		BigSpeed:           20,
		MidSpeed:           5,
		SmallSpeed:         2.5,
		BigError:           50,
		MidError:           20,
		ClimbFactor:        2.5,
		BrakeDescentFactor: 1.5,
		BrakeClimbFactor:   0.5,
		PropelAngle:        0.1,
		AngleKp:            6,
		AngleKd:            5,
	}
}

// RuleController flies toward a target with speed tiers chosen by distance.
// The lean angle it asks for holds between ticks until a horizontal error or
// speed limit changes it.
type RuleController struct {
	cfg       RuleConfig
	targetAng float64
}

func NewRuleController(cfg RuleConfig) *RuleController {
	return &RuleController{cfg: cfg}
}

// maxSpeed returns the allowed speed for the given position error.
func (rc *RuleController) maxSpeed(err float64) float64 {
	switch {
	case math.Abs(err) > rc.cfg.BigError:
		return rc.cfg.BigSpeed
	case math.Abs(err) > rc.cfg.MidError:
		return rc.cfg.MidSpeed
	default:
		return rc.cfg.SmallSpeed
	}
}

// Steer applies the rule table. Returned values are not limited.
func (rc *RuleController) Steer(st KinematicState, target Point, hover, _ float64) ThrusterCommand {
	var cmd ThrusterCommand

	yErr := target.Y - st.Y
	xErr := target.X - st.X

	if yErr < 0 {
		cmd.Up = rc.cfg.ClimbFactor * hover
	}
	limit := rc.maxSpeed(yErr)
	if st.DYDT < -limit {
		cmd.Up = rc.cfg.BrakeClimbFactor * hover
	} else if st.DYDT > limit {
		cmd.Up = rc.cfg.BrakeDescentFactor * hover
	}

	if xErr > 0 {
		rc.targetAng = rc.cfg.PropelAngle
	} else if xErr < 0 {
		rc.targetAng = -rc.cfg.PropelAngle
	}
	limit = rc.maxSpeed(xErr)
	if st.DXDT > limit {
		rc.targetAng = -rc.cfg.PropelAngle
	}
	if st.DXDT < -limit {
		rc.targetAng = rc.cfg.PropelAngle
	}

	angErr := rc.targetAng - st.NormalizedAngle()
	cmd.SetHorizontal(angErr*rc.cfg.AngleKp + st.DAngleDT*rc.cfg.AngleKd)
	return cmd
}

// PDConfig holds the gains of the PD controller.
type PDConfig struct {
	VerticalKp    float64 `json:"vertical_kp"`
	VerticalKd    float64 `json:"vertical_kd"`
	HorizontalKp  float64 `json:"horizontal_kp"`
	HorizontalKd  float64 `json:"horizontal_kd"`
	FeedbackScale float64 `json:"feedback_scale"`
	AngleGain     float64 `json:"angle_gain"`
	AngleKp       float64 `json:"angle_kp"`
	AngleKd       float64 `json:"angle_kd"`
	MaxChannel    float64 `json:"max_channel"`
}

// DefaultPDConfig returns the PD gains found by trial flights.
func DefaultPDConfig() PDConfig {
	return PDConfig{
		VerticalKp:    1,
		VerticalKd:    5,
		HorizontalKp:  2,
		HorizontalKd:  18,
		FeedbackScale: 20,
		AngleGain:     0.1,
		AngleKp:       20,
		AngleKd:       25,
		MaxChannel:    1,
	}
}

// PDController cascades a horizontal position loop into an angle loop and
// runs an independent vertical position loop around the hover thrust.
type PDController struct {
	cfg        PDConfig
	vertical   pid.Controller
	horizontal pid.Controller
	angle      pid.Controller
}

func NewPDController(cfg PDConfig) *PDController {
	return &PDController{
		cfg: cfg,
		vertical: pid.Controller{Config: pid.ControllerConfig{
			ProportionalGain: cfg.VerticalKp,
			DerivativeGain:   cfg.VerticalKd,
		}},
		horizontal: pid.Controller{Config: pid.ControllerConfig{
			ProportionalGain: cfg.HorizontalKp,
			DerivativeGain:   cfg.HorizontalKd,
		}},
		angle: pid.Controller{Config: pid.ControllerConfig{
			ProportionalGain: cfg.AngleKp,
			DerivativeGain:   cfg.AngleKd,
		}},
	}
}

// Reset clears the derivative history of all loops.
func (pc *PDController) Reset() {
	pc.vertical.Reset()
	pc.horizontal.Reset()
	pc.angle.Reset()
}

// Steer runs one PD update. Output channels are limited to MaxChannel.
func (pc *PDController) Steer(st KinematicState, target Point, hover, dt float64) ThrusterCommand {
	interval := time.Duration(dt * float64(time.Second))
	if interval < time.Nanosecond {
		interval = time.Nanosecond
	}

	pc.vertical.Update(pid.ControllerInput{
		ReferenceSignal:  target.Y,
		ActualSignal:     st.Y,
		SamplingInterval: interval,
	})

	pc.horizontal.Update(pid.ControllerInput{
		ReferenceSignal:  target.X,
		ActualSignal:     st.X,
		SamplingInterval: interval,
	})
	// Keep asin in its domain.
	feedback := clamp(pc.horizontal.State.ControlSignal/pc.cfg.FeedbackScale, -1, 1)

	pc.angle.Update(pid.ControllerInput{
		ReferenceSignal:  math.Pi - pc.cfg.AngleGain*math.Asin(feedback),
		ActualSignal:     st.Angle,
		SamplingInterval: interval,
	})

	var cmd ThrusterCommand
	// A target below the pod gives a positive error and needs less lift.
	cmd.SetVertical(hover - pc.vertical.State.ControlSignal)
	// Positive angle output turns the pod with the left thruster.
	cmd.SetHorizontal(-pc.angle.State.ControlSignal)
	cmd.Limit(pc.cfg.MaxChannel)
	return cmd
}
