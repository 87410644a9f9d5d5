package pod_nav

import (
	"encoding/json"
	"fmt"
	"os"
)

// HoverConfig tunes the hover thrust search.
type HoverConfig struct {
	InitialThrust float64 `json:"initial_thrust"`
	InitialStep   float64 `json:"initial_step"`
	ZeroThreshold float64 `json:"zero_threshold"`
	// MaxTicks bounds the search; zero leaves it unbounded.
	MaxTicks int `json:"max_ticks"`
}

// StopperConfig tunes velocity zeroing.
type StopperConfig struct {
	InitialStep   float64 `json:"initial_step"`
	ZeroThreshold float64 `json:"zero_threshold"`
	// OvershootTicks is the horizon below which the current deceleration is
	// judged too aggressive and the step is halved.
	OvershootTicks float64 `json:"overshoot_ticks"`
}

// MoveConfig tunes single-axis moves.
type MoveConfig struct {
	StopThreshold  float64       `json:"stop_threshold"`
	MaxSpeed       float64       `json:"max_speed"`
	ManeuverThrust float64       `json:"maneuver_thrust"`
	MaxChannel     float64       `json:"max_channel"`
	Stopper        StopperConfig `json:"stopper"`
}

// NavigatorConfig bundles the navigation phase policy.
type NavigatorConfig struct {
	Strategy NavStrategy `json:"strategy"`

	Clearance              float64 `json:"clearance"`
	CreepDistance          float64 `json:"creep_distance"`
	WallTolerance          float64 `json:"wall_tolerance"`
	DiscontinuityTolerance float64 `json:"discontinuity_tolerance"`

	Waypoints         []Point      `json:"waypoints"`
	WaypointRadius    float64      `json:"waypoint_radius"`
	WallDodgeDistance float64      `json:"wall_dodge_distance"`
	Steering          SteeringKind `json:"steering"`
	Rule              RuleConfig   `json:"rule"`
	PD                PDConfig     `json:"pd"`
}

// PilotConfig holds everything the orchestrator needs.
type PilotConfig struct {
	SensorCount    int             `json:"sensor_count"`
	Hover          HoverConfig     `json:"hover"`
	Stopper        StopperConfig   `json:"stopper"`
	Move           MoveConfig      `json:"move"`
	Navigator      NavigatorConfig `json:"navigator"`
	CenteringSweep bool            `json:"centering_sweep"`
}

// LiveConfig controls UDP input settings for sensor frames.
type LiveConfig struct {
	UDPAddr    string `json:"udp_addr"`
	ReadBuffer int    `json:"read_buffer"`
	QueueDepth int    `json:"queue_depth"`
}

// OutputConfig controls where thruster commands are written.
type OutputConfig struct {
	UDPAddr    string `json:"udp_addr"`
	SerialPort string `json:"serial_port"`
	BaudRate   int    `json:"baud_rate"`
	// Codec is "csv" or "msgpack".
	Codec string `json:"codec"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Enabled bool   `json:"enabled"`
	Level   string `json:"level"`
	// File enables rotation through lumberjack; empty logs to stderr.
	File      string `json:"file"`
	MaxSizeMB int    `json:"max_size_mb"`
}

// AppConfig aggregates all configuration sections.
type AppConfig struct {
	Pilot  PilotConfig  `json:"pilot"`
	Live   LiveConfig   `json:"live"`
	Output OutputConfig `json:"output"`
	Viz    VizConfig    `json:"viz"`
	Log    LogConfig    `json:"log"`
}

// DefaultPilotConfig returns the tuned defaults. Each call returns a fresh
// value so no two pilots share tuning state.
func DefaultPilotConfig() PilotConfig {
	stopper := StopperConfig{
		InitialStep:    0.5,
		ZeroThreshold:  1e-4,
		OvershootTicks: 100,
	}
	return PilotConfig{
		SensorCount: 40,
		Hover: HoverConfig{
			InitialThrust: 0,
			InitialStep:   0.5,
			ZeroThreshold: 1e-4,
		},
		Stopper: stopper,
		Move: MoveConfig{
			StopThreshold:  4,
			MaxSpeed:       10,
			ManeuverThrust: 0.1,
			MaxChannel:     1,
			Stopper:        stopper,
		},
		Navigator: NavigatorConfig{
			Strategy:               NavFurthestOpening,
			Clearance:              10,
			CreepDistance:          10,
			WallTolerance:          1e-3,
			DiscontinuityTolerance: 1,
			WaypointRadius:         20,
			WallDodgeDistance:      10,
			Steering:               SteeringRule,
			Rule:                   DefaultRuleConfig(),
			PD:                     DefaultPDConfig(),
		},
	}
}

// DefaultConfig returns an AppConfig with pilot defaults and local endpoints.
func DefaultConfig() AppConfig {
	return AppConfig{
		Pilot:  DefaultPilotConfig(),
		Live:   LiveConfig{UDPAddr: "127.0.0.1:9870", ReadBuffer: 4096, QueueDepth: 8},
		Output: OutputConfig{UDPAddr: "127.0.0.1:9871", BaudRate: 115200, Codec: "csv"},
		Log:    LogConfig{Enabled: true, Level: "info", MaxSizeMB: 32},
	}
}

// LoadConfig reads the JSON config from disk. Fields omitted from the file
// keep their defaults.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Pilot.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the pilot tuning for values the algorithms cannot run with.
func (c PilotConfig) Validate() error {
	if c.SensorCount < 4 || c.SensorCount%4 != 0 {
		return &ConfigError{Field: "sensor_count", Reason: "must be a positive multiple of 4"}
	}
	positive := []struct {
		name string
		v    float64
	}{
		{"hover.initial_step", c.Hover.InitialStep},
		{"hover.zero_threshold", c.Hover.ZeroThreshold},
		{"stopper.initial_step", c.Stopper.InitialStep},
		{"stopper.zero_threshold", c.Stopper.ZeroThreshold},
		{"stopper.overshoot_ticks", c.Stopper.OvershootTicks},
		{"move.stop_threshold", c.Move.StopThreshold},
		{"move.max_speed", c.Move.MaxSpeed},
		{"move.maneuver_thrust", c.Move.ManeuverThrust},
		{"move.max_channel", c.Move.MaxChannel},
		{"move.stopper.initial_step", c.Move.Stopper.InitialStep},
		{"move.stopper.zero_threshold", c.Move.Stopper.ZeroThreshold},
		{"move.stopper.overshoot_ticks", c.Move.Stopper.OvershootTicks},
		{"navigator.wall_tolerance", c.Navigator.WallTolerance},
		{"navigator.discontinuity_tolerance", c.Navigator.DiscontinuityTolerance},
	}
	for _, p := range positive {
		if !finite(p.v) || p.v <= 0 {
			return &ConfigError{Field: p.name, Reason: "must be > 0"}
		}
	}
	if c.Hover.InitialThrust < 0 {
		return &ConfigError{Field: "hover.initial_thrust", Reason: "must be >= 0"}
	}
	if c.Navigator.Clearance < 0 || c.Navigator.CreepDistance < 0 {
		return &ConfigError{Field: "navigator", Reason: "clearance and creep_distance must be >= 0"}
	}
	switch c.Navigator.Strategy {
	case NavFurthestOpening, NavClosestWall:
	case NavWaypoint:
		if len(c.Navigator.Waypoints) == 0 {
			return &ConfigError{Field: "navigator.waypoints", Reason: "waypoint strategy needs at least one waypoint"}
		}
	default:
		return &ConfigError{Field: "navigator.strategy", Reason: c.Navigator.Strategy.String()}
	}
	return nil
}
