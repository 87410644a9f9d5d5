package pod_nav

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// WallKind classifies the wall implied by the closest sensor pair.
type WallKind int

const (
	WallUnknown WallKind = iota
	WallVertical
	WallHorizontal
	WallDiagonal
)

func (w WallKind) String() string {
	switch w {
	case WallVertical:
		return "VERTICAL"
	case WallHorizontal:
		return "HORIZONTAL"
	case WallDiagonal:
		return "DIAGONAL"
	default:
		return "UNKNOWN"
	}
}

// Direction is one of the four cardinal travel directions.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirRight
	DirDown
	DirLeft
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "UP"
	case DirRight:
		return "RIGHT"
	case DirDown:
		return "DOWN"
	case DirLeft:
		return "LEFT"
	default:
		return "NONE"
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	default:
		return DirNone
	}
}

// NavTarget is the navigator's decision for the next move.
type NavTarget struct {
	// OK is false when no target could be derived; the pod should hold.
	OK         bool
	Axis       Axis
	Coordinate float64
	Direction  Direction
	Wall       WallKind
	Sensor     int
	Creep      bool
}

// SensorNavigator picks movement targets from range-sensor geometry.
type SensorNavigator struct {
	cfg  NavigatorConfig
	n    int
	last Direction
}

// NewSensorNavigator constructs a navigator for n sensors.
func NewSensorNavigator(cfg NavigatorConfig, n int) *SensorNavigator {
	return &SensorNavigator{cfg: cfg, n: n}
}

// Next dispatches to the configured sensor strategy.
func (nv *SensorNavigator) Next(sensors []SensorReading, st KinematicState) (NavTarget, error) {
	switch nv.cfg.Strategy {
	case NavClosestWall:
		return nv.ClosestWall(sensors, st)
	case NavFurthestOpening:
		return nv.FurthestOpening(sensors, st)
	default:
		return NavTarget{}, &ConfigError{Field: "navigator.strategy", Reason: fmt.Sprintf("%s is not sensor driven", nv.cfg.Strategy)}
	}
}

// LastDirection is the direction chosen by the previous FurthestOpening call.
func (nv *SensorNavigator) LastDirection() Direction { return nv.last }

func (nv *SensorNavigator) up() int    { return 0 }
func (nv *SensorNavigator) right() int { return nv.n / 4 }
func (nv *SensorNavigator) down() int  { return nv.n / 2 }
func (nv *SensorNavigator) left() int  { return 3 * nv.n / 4 }

func (nv *SensorNavigator) check(sensors []SensorReading) error {
	if nv.n < 4 || len(sensors) != nv.n {
		return &ConfigError{Field: "sensor_count", Reason: fmt.Sprintf("expected %d readings, got %d", nv.n, len(sensors))}
	}
	return nil
}

// FurthestOpening picks the cardinal direction with the greatest range,
// never reversing the previous choice, and targets Clearance short of the
// obstacle.
func (nv *SensorNavigator) FurthestOpening(sensors []SensorReading, st KinematicState) (NavTarget, error) {
	if err := nv.check(sensors); err != nil {
		return NavTarget{}, err
	}

	candidates := []struct {
		dir Direction
		idx int
	}{
		{DirUp, nv.up()}, {DirRight, nv.right()}, {DirDown, nv.down()}, {DirLeft, nv.left()},
	}
	best, bestRange, bestIdx := DirNone, -1.0, 0
	for _, c := range candidates {
		if nv.last != DirNone && c.dir == nv.last.Opposite() {
			continue
		}
		if r := sensors[c.idx].Range; r > bestRange {
			best, bestRange, bestIdx = c.dir, r, c.idx
		}
	}

	distance := math.Max(bestRange-nv.cfg.Clearance, 0)
	t := NavTarget{OK: true, Direction: best, Sensor: bestIdx}
	switch best {
	case DirUp:
		t.Axis, t.Coordinate = AxisVertical, st.Y-distance
	case DirDown:
		t.Axis, t.Coordinate = AxisVertical, st.Y+distance
	case DirLeft:
		t.Axis, t.Coordinate = AxisHorizontal, st.X-distance
	case DirRight:
		t.Axis, t.Coordinate = AxisHorizontal, st.X+distance
	}
	nv.last = best
	return t, nil
}

// ClosestWall follows the wall seen by the shortest sensor. It looks for the
// first break in that wall between the closest sensor and the cardinal sensor
// running parallel to it, and targets the point where the breaking ray crosses the
// wall line. With no break in view it creeps along the wall. Diagonal walls
// yield a target with OK false.
func (nv *SensorNavigator) ClosestWall(sensors []SensorReading, st KinematicState) (NavTarget, error) {
	if err := nv.check(sensors); err != nil {
		return NavTarget{}, err
	}

	closest := floats.MinIdx(sensorRanges(sensors))
	next := (closest + 1) % nv.n
	p1 := rayEnd(st, sensors[closest])
	p2 := rayEnd(st, sensors[next])

	top := st.Y - sensors[nv.up()].Range + nv.cfg.Clearance
	bottom := st.Y + sensors[nv.down()].Range - nv.cfg.Clearance
	left := st.X - sensors[nv.left()].Range + nv.cfg.Clearance
	right := st.X + sensors[nv.right()].Range - nv.cfg.Clearance

	t := NavTarget{Sensor: closest}
	switch {
	case math.Abs(p1.X-p2.X) < nv.cfg.WallTolerance:
		t.Wall = WallVertical
		t.Axis = AxisVertical
		// Clockwise from a right wall runs toward the down sensor, from a left
		// wall toward the up sensor.
		stop := nv.up()
		if p1.X > st.X {
			stop = nv.down()
		}
		y, found := nv.scan(sensors, st, closest, stop, func(p Point) bool {
			return math.Abs(p.X-p1.X) > nv.cfg.DiscontinuityTolerance
		}, func(r SensorReading) (float64, bool) {
			return crossVertical(st, r, p1.X)
		})
		if !found {
			t.Creep = true
			y = st.Y - nv.cfg.CreepDistance
			if p1.X > st.X {
				y = st.Y + nv.cfg.CreepDistance
			}
		}
		t.Coordinate = clampSpan(y, top, bottom)
		t.Direction = directionOf(AxisVertical, t.Coordinate-st.Y)
	case math.Abs(p1.Y-p2.Y) < nv.cfg.WallTolerance:
		t.Wall = WallHorizontal
		t.Axis = AxisHorizontal
		// Clockwise from the ceiling runs toward the right sensor, from the
		// floor toward the left sensor.
		stop := nv.left()
		if p1.Y < st.Y {
			stop = nv.right()
		}
		x, found := nv.scan(sensors, st, closest, stop, func(p Point) bool {
			return math.Abs(p.Y-p1.Y) > nv.cfg.DiscontinuityTolerance
		}, func(r SensorReading) (float64, bool) {
			return crossHorizontal(st, r, p1.Y)
		})
		if !found {
			t.Creep = true
			x = st.X - nv.cfg.CreepDistance
			if p1.Y < st.Y {
				x = st.X + nv.cfg.CreepDistance
			}
		}
		t.Coordinate = clampSpan(x, left, right)
		t.Direction = directionOf(AxisHorizontal, t.Coordinate-st.X)
	default:
		t.Wall = WallDiagonal
		return t, nil
	}
	t.OK = true
	return t, nil
}

// scan walks clockwise from the closest sensor up to, but not including, the
// cardinal stop sensor whose ray runs parallel to the wall.
func (nv *SensorNavigator) scan(sensors []SensorReading, st KinematicState, closest, stop int,
	broken func(Point) bool, crossing func(SensorReading) (float64, bool)) (float64, bool) {
	span := ((stop-closest)%nv.n + nv.n) % nv.n
	for k := 1; k < span; k++ {
		r := sensors[(closest+k)%nv.n]
		if !broken(rayEnd(st, r)) {
			continue
		}
		if v, ok := crossing(r); ok {
			return v, true
		}
	}
	return 0, false
}

// crossVertical returns the y where the ray meets the line x = wallX. Rays
// parallel to the line or pointing away from it do not cross.
func crossVertical(st KinematicState, r SensorReading, wallX float64) (float64, bool) {
	s := math.Sin(r.Angle)
	if math.Abs(s) < 1e-9 {
		return 0, false
	}
	t := (wallX - st.X) / s
	if t <= 0 {
		return 0, false
	}
	return st.Y + t*math.Cos(r.Angle), true
}

// crossHorizontal returns the x where the ray meets the line y = wallY.
func crossHorizontal(st KinematicState, r SensorReading, wallY float64) (float64, bool) {
	c := math.Cos(r.Angle)
	if math.Abs(c) < 1e-9 {
		return 0, false
	}
	t := (wallY - st.Y) / c
	if t <= 0 {
		return 0, false
	}
	return st.X + t*math.Sin(r.Angle), true
}

func sensorRanges(sensors []SensorReading) []float64 {
	out := make([]float64, len(sensors))
	for i, s := range sensors {
		out[i] = s.Range
	}
	return out
}

// rayEnd is the world point where a sensor ray stopped.
func rayEnd(st KinematicState, r SensorReading) Point {
	return Point{
		X: st.X + r.Range*math.Sin(r.Angle),
		Y: st.Y + r.Range*math.Cos(r.Angle),
	}
}

// clampSpan clamps into [lo, hi], settling on the midpoint when the span is
// too narrow to honor both bounds.
func clampSpan(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return clamp(v, lo, hi)
}

func directionOf(axis Axis, delta float64) Direction {
	switch {
	case delta == 0:
		return DirNone
	case axis == AxisVertical && delta < 0:
		return DirUp
	case axis == AxisVertical:
		return DirDown
	case delta < 0:
		return DirLeft
	default:
		return DirRight
	}
}
