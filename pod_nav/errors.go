package pod_nav

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimestep is returned when dt is zero, negative or not finite.
	ErrInvalidTimestep = errors.New("invalid timestep")
	// ErrSearchExhausted is returned when the hover search exceeds its tick bound.
	ErrSearchExhausted = errors.New("hover thrust search exhausted")
)

// ConfigError reports an unusable configuration value or a frame that does
// not match the configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// InputError reports a malformed value in a frame.
type InputError struct {
	Field string
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s=%v", e.Field, e.Value)
}

// SequenceError reports a personality started before its prerequisite.
type SequenceError struct {
	Personality PersonalityKind
	Requires    string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Personality, e.Requires)
}

func checkTimestep(dt float64) error {
	if !finite(dt) || dt <= 0 {
		return fmt.Errorf("dt=%v: %w", dt, ErrInvalidTimestep)
	}
	return nil
}

// validateFrame rejects frames the core must not fly on.
func validateFrame(sensors []SensorReading, st KinematicState, n int) error {
	if len(sensors) != n {
		return &ConfigError{Field: "sensor_count", Reason: fmt.Sprintf("expected %d readings, got %d", n, len(sensors))}
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"x", st.X}, {"y", st.Y}, {"ang", st.Angle},
		{"dxdt", st.DXDT}, {"dydt", st.DYDT}, {"dangdt", st.DAngleDT},
	}
	for _, f := range fields {
		if !finite(f.v) {
			return &InputError{Field: f.name, Value: f.v}
		}
	}
	for i, s := range sensors {
		if !finite(s.Angle) {
			return &InputError{Field: fmt.Sprintf("sensor[%d].angle", i), Value: s.Angle}
		}
		if !finite(s.Range) || s.Range < 0 {
			return &InputError{Field: fmt.Sprintf("sensor[%d].range", i), Value: s.Range}
		}
	}
	return nil
}
