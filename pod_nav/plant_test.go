package pod_nav

import "math"

// testPlant is a rigid pod in a rectangular box. Thrust scales linearly into
// acceleration and gravity pulls toward +y.
type testPlant struct {
	x, y, vx, vy float64
	ang          float64
	g, k, kx     float64
	w, h         float64
}

func newTestPlant(x, y float64) *testPlant {
	return &testPlant{x: x, y: y, ang: math.Pi, g: 4, k: 20, kx: 20, w: 400, h: 600}
}

// hover is the thrust that holds the pod still while upright.
func (p *testPlant) hover() float64 { return p.g / p.k }

func (p *testPlant) step(cmd ThrusterCommand, dt float64) {
	ay := p.g - p.k*cmd.Vertical()*math.Cos(p.ang-math.Pi)
	ax := p.kx * cmd.Horizontal()
	p.vy += ay * dt
	p.y += p.vy * dt
	p.vx += ax * dt
	p.x += p.vx * dt
}

func (p *testPlant) state() KinematicState {
	return KinematicState{X: p.x, Y: p.y, Angle: p.ang, DXDT: p.vx, DYDT: p.vy}
}

func (p *testPlant) sensors(n int) []SensorReading {
	return boxSensors(p.x, p.y, p.w, p.h, n)
}

// boxSensors casts n rays from (x, y) to the walls of a w by h box.
func boxSensors(x, y, w, h float64, n int) []SensorReading {
	out := make([]SensorReading, n)
	for i := range out {
		a := CardinalAngle(i, n)
		dx, dy := math.Sin(a), math.Cos(a)
		r := math.Inf(1)
		if dx > 1e-12 {
			r = math.Min(r, (w-x)/dx)
		}
		if dx < -1e-12 {
			r = math.Min(r, -x/dx)
		}
		if dy > 1e-12 {
			r = math.Min(r, (h-y)/dy)
		}
		if dy < -1e-12 {
			r = math.Min(r, -y/dy)
		}
		out[i] = SensorReading{Angle: a, Range: r, Surface: "wall"}
	}
	return out
}

func uniformSensors(n int, r float64) []SensorReading {
	out := make([]SensorReading, n)
	for i := range out {
		out[i] = SensorReading{Angle: CardinalAngle(i, n), Range: r}
	}
	return out
}
