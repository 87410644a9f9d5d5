package pod_nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSensors = 40

func newTestNavigator(strategy NavStrategy) *SensorNavigator {
	cfg := DefaultPilotConfig().Navigator
	cfg.Strategy = strategy
	return NewSensorNavigator(cfg, testSensors)
}

func TestFurthestOpeningPicksLongestRange(t *testing.T) {
	nav := newTestNavigator(NavFurthestOpening)
	sensors := uniformSensors(testSensors, 100)
	sensors[10].Range = 300

	got, err := nav.FurthestOpening(sensors, KinematicState{X: 50, Y: 60})
	require.NoError(t, err)

	assert.Equal(t, NavTarget{OK: true, Axis: AxisHorizontal, Coordinate: 340, Direction: DirRight, Sensor: 10}, got)
	assert.Equal(t, DirRight, nav.LastDirection())
}

func TestFurthestOpeningNeverReverses(t *testing.T) {
	nav := newTestNavigator(NavFurthestOpening)
	st := KinematicState{X: 200, Y: 300}

	sensors := uniformSensors(testSensors, 100)
	sensors[0].Range = 400
	first, err := nav.Next(sensors, st)
	require.NoError(t, err)
	require.Equal(t, DirUp, first.Direction)
	assert.Equal(t, AxisVertical, first.Axis)
	assert.InDelta(t, -90, first.Coordinate, 1e-12)

	sensors = uniformSensors(testSensors, 100)
	sensors[20].Range = 500
	sensors[30].Range = 200
	second, err := nav.Next(sensors, st)
	require.NoError(t, err)
	assert.Equal(t, DirLeft, second.Direction)
	assert.InDelta(t, 10, second.Coordinate, 1e-12)
}

func TestFurthestOpeningInsideClearance(t *testing.T) {
	nav := newTestNavigator(NavFurthestOpening)
	got, err := nav.FurthestOpening(uniformSensors(testSensors, 4), KinematicState{X: 5, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, DirUp, got.Direction)
	assert.Equal(t, 5.0, got.Coordinate)
}

func TestClosestWall(t *testing.T) {
	cases := []struct {
		name      string
		x, y      float64
		w, h      float64
		wall      WallKind
		axis      Axis
		sensor    int
		coord     float64
		direction Direction
		creep     bool
	}{
		{
			name: "left wall opening to ceiling",
			x:    100, y: 300, w: 400, h: 600,
			wall: WallVertical, axis: AxisVertical, sensor: 30,
			coord: 10, direction: DirUp,
		},
		{
			name: "floor opening to left wall",
			x:    100, y: 580, w: 400, h: 600,
			wall: WallHorizontal, axis: AxisHorizontal, sensor: 20,
			coord: 10, direction: DirLeft,
		},
		{
			name: "long ceiling creeps right",
			x:    1000, y: 20, w: 2000, h: 600,
			wall: WallHorizontal, axis: AxisHorizontal, sensor: 0,
			coord: 1010, direction: DirRight, creep: true,
		},
		{
			name: "tall right wall creeps down",
			x:    390, y: 1000, w: 400, h: 2000,
			wall: WallVertical, axis: AxisVertical, sensor: 10,
			coord: 1010, direction: DirDown, creep: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			nav := newTestNavigator(NavClosestWall)
			sensors := boxSensors(tc.x, tc.y, tc.w, tc.h, testSensors)

			got, err := nav.Next(sensors, KinematicState{X: tc.x, Y: tc.y, Angle: 3.14159})
			require.NoError(t, err)

			require.True(t, got.OK)
			assert.Equal(t, tc.wall, got.Wall)
			assert.Equal(t, tc.axis, got.Axis)
			assert.Equal(t, tc.sensor, got.Sensor)
			assert.InDelta(t, tc.coord, got.Coordinate, 1e-6)
			assert.Equal(t, tc.direction, got.Direction)
			assert.Equal(t, tc.creep, got.Creep)
		})
	}
}

// partialWallSensors sees a vertical wall at x = wallX on sensors first..last
// and open space everywhere else.
func partialWallSensors(wallX float64, first, last int) []SensorReading {
	sensors := uniformSensors(testSensors, 1000)
	for i := first; i <= last; i++ {
		sensors[i].Range = wallX / math.Sin(sensors[i].Angle)
	}
	return sensors
}

func TestClosestWallPartialWall(t *testing.T) {
	nav := newTestNavigator(NavClosestWall)

	t.Run("creeps when the wall runs out past the down sensor", func(t *testing.T) {
		got, err := nav.ClosestWall(partialWallSensors(100, 12, 19), KinematicState{})
		require.NoError(t, err)
		require.True(t, got.OK)
		assert.Equal(t, 12, got.Sensor)
		assert.Equal(t, WallVertical, got.Wall)
		assert.True(t, got.Creep)
		assert.InDelta(t, 10, got.Coordinate, 1e-6)
		assert.Equal(t, DirDown, got.Direction)
	})

	t.Run("targets the break before the down sensor", func(t *testing.T) {
		got, err := nav.ClosestWall(partialWallSensors(100, 12, 16), KinematicState{})
		require.NoError(t, err)
		require.True(t, got.OK)
		assert.Equal(t, 12, got.Sensor)
		assert.False(t, got.Creep)
		assert.InDelta(t, 100/math.Tan(3*math.Pi/20), got.Coordinate, 1e-6)
		assert.Equal(t, DirDown, got.Direction)
	})
}

func TestWallCrossings(t *testing.T) {
	st := KinematicState{X: 50, Y: 50}
	toward := SensorReading{Angle: math.Pi / 4}
	away := SensorReading{Angle: -math.Pi / 4}

	y, ok := crossVertical(st, toward, 150)
	require.True(t, ok)
	assert.InDelta(t, 150, y, 1e-9)
	_, ok = crossVertical(st, away, 150)
	assert.False(t, ok)
	_, ok = crossVertical(st, SensorReading{Angle: 0}, 150)
	assert.False(t, ok)

	x, ok := crossHorizontal(st, toward, 150)
	require.True(t, ok)
	assert.InDelta(t, 150, x, 1e-9)
	_, ok = crossHorizontal(st, SensorReading{Angle: math.Pi}, 150)
	assert.False(t, ok)
	_, ok = crossHorizontal(st, SensorReading{Angle: math.Pi / 2}, 150)
	assert.False(t, ok)
}

func TestClosestWallDiagonalHolds(t *testing.T) {
	nav := newTestNavigator(NavClosestWall)
	sensors := uniformSensors(testSensors, 500)
	sensors[0].Range = 50

	got, err := nav.ClosestWall(sensors, KinematicState{X: 200, Y: 300})
	require.NoError(t, err)
	assert.False(t, got.OK)
	assert.Equal(t, WallDiagonal, got.Wall)
	assert.Equal(t, 0, got.Sensor)
}

func TestClosestWallTargetWithinBounds(t *testing.T) {
	nav := newTestNavigator(NavClosestWall)
	for _, pos := range []struct{ x, y float64 }{{30, 300}, {370, 200}, {200, 25}, {150, 570}} {
		sensors := boxSensors(pos.x, pos.y, 400, 600, testSensors)
		got, err := nav.ClosestWall(sensors, KinematicState{X: pos.x, Y: pos.y})
		require.NoError(t, err)
		require.True(t, got.OK, "at %v", pos)
		if got.Axis == AxisVertical {
			assert.GreaterOrEqual(t, got.Coordinate, pos.y-sensors[0].Range+10-1e-9)
			assert.LessOrEqual(t, got.Coordinate, pos.y+sensors[20].Range-10+1e-9)
		} else {
			assert.GreaterOrEqual(t, got.Coordinate, pos.x-sensors[30].Range+10-1e-9)
			assert.LessOrEqual(t, got.Coordinate, pos.x+sensors[10].Range-10+1e-9)
		}
	}
}

func TestSensorNavigatorErrors(t *testing.T) {
	nav := newTestNavigator(NavClosestWall)
	_, err := nav.ClosestWall(uniformSensors(testSensors-1, 10), KinematicState{})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "sensor_count", cfgErr.Field)

	_, err = newTestNavigator(NavWaypoint).Next(uniformSensors(testSensors, 10), KinematicState{})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "navigator.strategy", cfgErr.Field)
}

func TestClampSpan(t *testing.T) {
	assert.Equal(t, 20.0, clampSpan(50, 10, 20))
	assert.Equal(t, 10.0, clampSpan(-5, 10, 20))
	assert.Equal(t, 5.0, clampSpan(100, 10, 0))
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range []Direction{DirUp, DirRight, DirDown, DirLeft} {
		assert.NotEqual(t, d, d.Opposite())
		assert.Equal(t, d, d.Opposite().Opposite())
	}
	assert.Equal(t, DirNone, DirNone.Opposite())
}
