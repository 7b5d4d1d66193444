package domain

import "slices"

// StageConfig carries per-stage behavior switches.
type StageConfig struct {
	Editable        bool
	NotifyAfterDays int
	Mandatory       bool
}

// Stage is an ordered step of the order pipeline.
type Stage struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	Color       string
	Order       int
	Active      bool
	Config      StageConfig

	// IsTerminal marks stages that complete an order (delivery).
	IsTerminal bool

	// AllowedNext restricts outgoing moves. Empty means any stage may follow.
	AllowedNext []string
}

// AllowsTransitionTo reports whether an order in this stage may move to target.
func (s *Stage) AllowsTransitionTo(target string) bool {
	if len(s.AllowedNext) == 0 {
		return true
	}
	return slices.Contains(s.AllowedNext, target)
}

// Clone returns a deep copy.
func (s *Stage) Clone() *Stage {
	cp := *s
	cp.AllowedNext = slices.Clone(s.AllowedNext)
	return &cp
}
