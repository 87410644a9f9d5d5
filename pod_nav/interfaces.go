package pod_nav

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// SurfaceTag is an opaque classifier the host attaches to each sensor hit.
type SurfaceTag string

// SensorReading is one range-sensor sample.
//
// Conventions:
//   - the ray ends at (x + Range*sin(Angle), y + Range*cos(Angle)) in world frame.
//   - index 0 points up, N/4 right, N/2 down and 3N/4 left.
type SensorReading struct {
	Angle   float64    `msgpack:"angle" json:"angle"`
	Range   float64    `msgpack:"range" json:"range"`
	Surface SurfaceTag `msgpack:"surface" json:"surface"`
}

// CardinalAngle returns the world angle of sensor i out of n under the index
// convention above.
func CardinalAngle(i, n int) float64 {
	return math.Pi - 2*math.Pi*float64(i)/float64(n)
}

// KinematicState is the pod snapshot for a single tick.
//
// World frame has x growing right and y growing down. Angle is the host's body
// angle, upright at pi. Accel, PrevAccel, AccelX and PrevAccelX are derived by
// StateTracker; the host leaves them zero.
type KinematicState struct {
	X        float64 `msgpack:"x" json:"x"`
	Y        float64 `msgpack:"y" json:"y"`
	Angle    float64 `msgpack:"ang" json:"ang"`
	DXDT     float64 `msgpack:"dxdt" json:"dxdt"`
	DYDT     float64 `msgpack:"dydt" json:"dydt"`
	DAngleDT float64 `msgpack:"dangdt" json:"dangdt"`

	Accel      float64 `msgpack:"-" json:"-"`
	PrevAccel  float64 `msgpack:"-" json:"-"`
	AccelX     float64 `msgpack:"-" json:"-"`
	PrevAccelX float64 `msgpack:"-" json:"-"`
	DT         float64 `msgpack:"-" json:"-"`
}

// Tilt is the body angle measured from upright.
func (s KinematicState) Tilt() float64 {
	return s.Angle - math.Pi
}

// NormalizedAngle maps Angle into (-pi, pi] with 0 pointing up.
func (s KinematicState) NormalizedAngle() float64 {
	a := 2*math.Pi - math.Mod(math.Mod(s.Angle+math.Pi, 2*math.Pi)+2*math.Pi, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Position returns the coordinate along an axis.
func (s KinematicState) Position(axis Axis) float64 {
	if axis == AxisHorizontal {
		return s.X
	}
	return s.Y
}

// Velocity returns the velocity along an axis.
func (s KinematicState) Velocity(axis Axis) float64 {
	if axis == AxisHorizontal {
		return s.DXDT
	}
	return s.DYDT
}

// Acceleration returns the derived acceleration along an axis.
func (s KinematicState) Acceleration(axis Axis) float64 {
	if axis == AxisHorizontal {
		return s.AccelX
	}
	return s.Accel
}

// ThrusterCommand holds the four non-negative channel magnitudes.
type ThrusterCommand struct {
	Up    float64 `msgpack:"up" json:"up"`
	Down  float64 `msgpack:"down" json:"down"`
	Left  float64 `msgpack:"left" json:"left"`
	Right float64 `msgpack:"right" json:"right"`
}

// SetVertical splits a signed upward force onto the Up and Down channels.
func (c *ThrusterCommand) SetVertical(net float64) {
	if net >= 0 {
		c.Up, c.Down = net, 0
		return
	}
	c.Up, c.Down = 0, -net
}

// SetHorizontal splits a signed rightward force onto the Left and Right channels.
func (c *ThrusterCommand) SetHorizontal(net float64) {
	if net >= 0 {
		c.Left, c.Right = 0, net
		return
	}
	c.Left, c.Right = -net, 0
}

// Vertical is the net upward force.
func (c ThrusterCommand) Vertical() float64 { return c.Up - c.Down }

// Horizontal is the net rightward force.
func (c ThrusterCommand) Horizontal() float64 { return c.Right - c.Left }

// Limit clamps every channel into [0, max].
func (c *ThrusterCommand) Limit(max float64) {
	c.Up = clamp(c.Up, 0, max)
	c.Down = clamp(c.Down, 0, max)
	c.Left = clamp(c.Left, 0, max)
	c.Right = clamp(c.Right, 0, max)
}

// HoldCommand is the fallback command that just cancels gravity.
func HoldCommand(hover float64) ThrusterCommand {
	var c ThrusterCommand
	c.SetVertical(hover)
	return c
}

// Axis selects the vertical or horizontal degree of freedom.
type Axis int

const (
	AxisVertical Axis = iota + 1
	AxisHorizontal
)

func (a Axis) String() string {
	switch a {
	case AxisVertical:
		return "VERTICAL"
	case AxisHorizontal:
		return "HORIZONTAL"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Stage is the mission lifecycle position of the orchestrator.
type Stage int

const (
	StageIdle Stage = iota
	StageSearchingHover
	StageZeroingVelocity
	StageCentering
	StageNavigating
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "IDLE"
	case StageSearchingHover:
		return "SEARCHING_HOVER"
	case StageZeroingVelocity:
		return "ZEROING_VELOCITY"
	case StageCentering:
		return "CENTERING"
	case StageNavigating:
		return "NAVIGATING"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// NavStrategy selects what the orchestrator does once centering is complete.
type NavStrategy int

const (
	NavFurthestOpening NavStrategy = iota + 1
	NavClosestWall
	NavWaypoint
)

func (n NavStrategy) String() string {
	switch n {
	case NavFurthestOpening:
		return "FURTHEST_OPENING"
	case NavClosestWall:
		return "CLOSEST_WALL"
	case NavWaypoint:
		return "WAYPOINT"
	default:
		return fmt.Sprintf("NavStrategy(%d)", int(n))
	}
}

// ParseNavStrategy converts a strategy name into a NavStrategy.
func ParseNavStrategy(value string) (NavStrategy, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	switch normalized {
	case "FURTHEST_OPENING", "FURTHEST":
		return NavFurthestOpening, nil
	case "CLOSEST_WALL", "WALL_FOLLOWING":
		return NavClosestWall, nil
	case "WAYPOINT", "ROUTE":
		return NavWaypoint, nil
	default:
		return NavFurthestOpening, fmt.Errorf("unknown navigation strategy %q", value)
	}
}

// UnmarshalJSON allows strategies to be loaded from JSON strings.
func (n *NavStrategy) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	parsed, err := ParseNavStrategy(*raw)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalJSON writes the strategy name.
func (n NavStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// Point is a world-frame coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// clamp keeps value inside [lo, hi].
func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// sign returns -1 for negative values and 1 otherwise.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
