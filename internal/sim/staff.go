package sim

import (
	"scrumline/internal/domain"
)

// Staff is the person behind one or more capabilities. However many roles a
// person holds, they can only actively work one story at a time; the active
// map, keyed by role kind, is what enforces that.
type Staff struct {
	name   string
	active map[domain.Role]bool
}

func NewStaff(name string) *Staff {
	return &Staff{
		name:   name,
		active: make(map[domain.Role]bool),
	}
}

func (s *Staff) Name() string { return s.name }

// Busy reports whether any of this person's roles is currently on a story.
func (s *Staff) Busy() bool {
	for _, on := range s.active {
		if on {
			return true
		}
	}
	return false
}

// BusyWith reports whether the given role is the one occupying this person.
func (s *Staff) BusyWith(role domain.Role) bool { return s.active[role] }

func (s *Staff) setActive(role domain.Role, on bool) { s.active[role] = on }
