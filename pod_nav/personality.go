package pod_nav

import "fmt"

// PersonalityKind enumerates the sub-controllers the orchestrator can run.
type PersonalityKind int

const (
	KindHoverFinder PersonalityKind = iota + 1
	KindVelocityZeroer
	KindAxisMove
)

func (k PersonalityKind) String() string {
	switch k {
	case KindHoverFinder:
		return "HOVER_FINDER"
	case KindVelocityZeroer:
		return "VELOCITY_ZEROER"
	case KindAxisMove:
		return "AXIS_MOVE"
	default:
		return fmt.Sprintf("PersonalityKind(%d)", int(k))
	}
}

// Personality is a sub-controller owning one mission sub-goal.
//
// Once Done reports true, Process is a no-op and Command is frozen.
type Personality interface {
	Kind() PersonalityKind
	Process(st KinematicState) error
	Command() ThrusterCommand
	Done() bool
}

// personalityStack holds pending personalities. The most recently pushed
// personality is activated first.
type personalityStack struct {
	items []Personality
}

func (s *personalityStack) Push(p Personality) {
	s.items = append(s.items, p)
}

func (s *personalityStack) Pop() (Personality, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	last := len(s.items) - 1
	p := s.items[last]
	s.items[last] = nil
	s.items = s.items[:last]
	return p, true
}

func (s *personalityStack) Len() int {
	return len(s.items)
}
