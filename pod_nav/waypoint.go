package pod_nav

import "math"

// WaypointNavigator walks a fixed list of target points.
type WaypointNavigator struct {
	points  []Point
	radius  float64
	current int
	end     bool
}

// NewWaypointNavigator copies points so the caller's slice can be reused.
func NewWaypointNavigator(points []Point, radius float64) *WaypointNavigator {
	return &WaypointNavigator{points: append([]Point(nil), points...), radius: radius}
}

// Target returns the active waypoint, advancing once the pod is within the
// radius. End reports true once the pod reaches the final point.
func (wn *WaypointNavigator) Target(st KinematicState) Point {
	if len(wn.points) == 0 {
		return Point{X: st.X, Y: st.Y}
	}
	p := wn.points[wn.current]
	if math.Hypot(st.X-p.X, st.Y-p.Y) < wn.radius {
		if wn.current < len(wn.points)-1 {
			wn.current++
		} else {
			wn.end = true
		}
	}
	return wn.points[wn.current]
}

// Index is the position of the active waypoint.
func (wn *WaypointNavigator) Index() int { return wn.current }

// End reports whether the final waypoint has been reached.
func (wn *WaypointNavigator) End() bool { return wn.end }

// WallDodger pushes a target away from walls closer than SafeDistance. Each
// offending sensor contributes, so the push grows near corners.
type WallDodger struct {
	SafeDistance float64
}

func (wd WallDodger) Dodge(sensors []SensorReading, target Point) Point {
	for _, s := range sensors {
		if s.Range < wd.SafeDistance {
			target.X += -50 * math.Sin(s.Angle)
			target.Y += -25 * math.Cos(s.Angle)
		}
	}
	return target
}
