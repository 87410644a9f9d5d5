package pod_nav

import (
	"fmt"
	"log/slog"
)

// Orchestrator sequences personalities through the mission lifecycle:
// SEARCHING_HOVER, ZEROING_VELOCITY, CENTERING and then NAVIGATING forever.
//
// At most one personality is active. Pending personalities are kept on a
// stack and are consulted only once the active one is done; they run before
// the lifecycle advances. With nothing active the pod holds hover thrust.
type Orchestrator struct {
	cfg PilotConfig
	log *slog.Logger

	tracker *StateTracker
	stage   Stage
	active  Personality
	pending personalityStack

	finder     *HoverFinder
	hover      float64
	hoverKnown bool

	nav        *SensorNavigator
	waypoints  *WaypointNavigator
	steering   TargetController
	dodger     WallDodger
	lastTarget NavTarget
	ticks      uint64
}

// NewOrchestrator constructs an orchestrator with the given tuning. A nil
// logger discards output.
func NewOrchestrator(cfg PilotConfig, logger *slog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := &Orchestrator{
		cfg:     cfg,
		log:     logger,
		tracker: NewStateTracker(cfg.Hover.ZeroThreshold),
		stage:   StageIdle,
		nav:     NewSensorNavigator(cfg.Navigator, cfg.SensorCount),
		dodger:  WallDodger{SafeDistance: cfg.Navigator.WallDodgeDistance},
	}
	if cfg.Navigator.Strategy == NavWaypoint {
		o.waypoints = NewWaypointNavigator(cfg.Navigator.Waypoints, cfg.Navigator.WaypointRadius)
		o.steering = NewTargetController(cfg.Navigator)
	}
	return o, nil
}

// Process runs one tick and returns the thruster command for it.
func (o *Orchestrator) Process(sensors []SensorReading, st KinematicState, dt float64) (ThrusterCommand, error) {
	if err := checkTimestep(dt); err != nil {
		return o.hold(), err
	}
	if err := validateFrame(sensors, st, o.cfg.SensorCount); err != nil {
		return o.hold(), err
	}
	st, err := o.tracker.Update(st, dt)
	if err != nil {
		return o.hold(), err
	}
	o.ticks++

	if o.active != nil && !o.active.Done() {
		if err := o.active.Process(st); err != nil {
			return o.hold(), fmt.Errorf("%s: %w", o.active.Kind(), err)
		}
		return o.active.Command(), nil
	}

	if p, ok := o.pending.Pop(); ok {
		return o.activate(p, st)
	}
	return o.advance(sensors, st)
}

// Push queues a personality to run once the active one is done. The most
// recently pushed personality runs first.
func (o *Orchestrator) Push(p Personality) {
	o.pending.Push(p)
}

// Stage is the current lifecycle stage.
func (o *Orchestrator) Stage() Stage { return o.stage }

// HoverThrust returns the discovered hover thrust once the search is done.
func (o *Orchestrator) HoverThrust() (float64, bool) { return o.hover, o.hoverKnown }

// Active is the running personality, or nil while holding.
func (o *Orchestrator) Active() Personality { return o.active }

// Pending is the number of queued personalities.
func (o *Orchestrator) Pending() int { return o.pending.Len() }

// LastTarget is the most recent sensor navigation decision.
func (o *Orchestrator) LastTarget() NavTarget { return o.lastTarget }

// Ticks counts processed frames.
func (o *Orchestrator) Ticks() uint64 { return o.ticks }

func (o *Orchestrator) hold() ThrusterCommand {
	return HoldCommand(o.hover)
}

func (o *Orchestrator) activate(p Personality, st KinematicState) (ThrusterCommand, error) {
	o.active = p
	o.log.Debug("personality activated", slog.String("kind", p.Kind().String()), slog.String("stage", o.stage.String()))
	if err := p.Process(st); err != nil {
		return o.hold(), fmt.Errorf("%s: %w", p.Kind(), err)
	}
	return p.Command(), nil
}

func (o *Orchestrator) setStage(next Stage) {
	if next == o.stage {
		return
	}
	o.log.Info("stage transition",
		slog.String("from", o.stage.String()),
		slog.String("to", next.String()),
		slog.Float64("hover_thrust", o.hover),
		slog.Uint64("tick", o.ticks))
	o.stage = next
}

// advance starts the next lifecycle stage.
func (o *Orchestrator) advance(sensors []SensorReading, st KinematicState) (ThrusterCommand, error) {
	switch o.stage {
	case StageIdle:
		o.finder = NewHoverFinder(o.cfg.Hover)
		o.setStage(StageSearchingHover)
		return o.activate(o.finder, st)

	case StageSearchingHover:
		o.hover = o.finder.Thrust()
		o.hoverKnown = true
		z, err := NewVelocityZeroer(AxisVertical, o.hover, o.cfg.Stopper)
		if err != nil {
			return o.hold(), err
		}
		o.setStage(StageZeroingVelocity)
		return o.activate(z, st)

	case StageZeroingVelocity:
		up := sensors[0].Range
		down := sensors[o.cfg.SensorCount/2].Range
		span := up + down
		center := st.Y + down - span/2
		m, err := NewAxisMove(AxisVertical, o.hover, st, center, o.cfg.Move)
		if err != nil {
			return o.hold(), err
		}
		if o.cfg.CenteringSweep {
			// Pushed in reverse: out to a quarter span below centre, then back.
			for _, dest := range []float64{center, center + span/4} {
				sweep, err := NewAxisMove(AxisVertical, o.hover, st, dest, o.cfg.Move)
				if err != nil {
					return o.hold(), err
				}
				o.Push(sweep)
			}
		}
		o.setStage(StageCentering)
		o.log.Info("centering", slog.Float64("destination", center), slog.Float64("span", span))
		return o.activate(m, st)

	default:
		o.setStage(StageNavigating)
		return o.navigate(sensors, st)
	}
}

type resetter interface {
	Reset()
}

func (o *Orchestrator) navigate(sensors []SensorReading, st KinematicState) (ThrusterCommand, error) {
	if o.cfg.Navigator.Strategy == NavWaypoint {
		o.active = nil
		prev := o.waypoints.Index()
		waypoint := o.waypoints.Target(st)
		if r, ok := o.steering.(resetter); ok && o.waypoints.Index() != prev {
			// Derivative history from the old waypoint would kick the new one.
			r.Reset()
		}
		target := o.dodger.Dodge(sensors, waypoint)
		o.lastTarget = NavTarget{OK: true, Coordinate: target.Y, Axis: AxisVertical}
		return o.steering.Steer(st, target, o.hover, st.DT), nil
	}

	t, err := o.nav.Next(sensors, st)
	if err != nil {
		return o.hold(), err
	}
	o.lastTarget = t
	if !t.OK {
		o.active = nil
		o.log.Debug("no navigation target, holding",
			slog.String("wall", t.Wall.String()),
			slog.Int("sensor", t.Sensor))
		return o.hold(), nil
	}

	m, err := NewAxisMove(t.Axis, o.hover, st, t.Coordinate, o.cfg.Move)
	if err != nil {
		return o.hold(), err
	}
	o.log.Debug("navigation target",
		slog.String("axis", t.Axis.String()),
		slog.String("direction", t.Direction.String()),
		slog.String("wall", t.Wall.String()),
		slog.Float64("coordinate", t.Coordinate),
		slog.Bool("creep", t.Creep))
	return o.activate(m, st)
}
