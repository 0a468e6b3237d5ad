package sim

import (
	"fmt"

	"scrumline/internal/domain"
)

// BuildTeam turns member specs into capabilities, resolving same_as
// references so that additional roles share the earlier member's staff
// identity. Specs are assumed normalized (see the config package); the errors
// here guard the contract rather than re-validate it.
func BuildTeam(specs []domain.MemberSpec) ([]*Capability, error) {
	byName := make(map[string]*Staff)
	team := make([]*Capability, 0, len(specs))
	for i, spec := range specs {
		var staff *Staff
		switch {
		case spec.SameAs != "":
			staff = byName[spec.SameAs]
			if staff == nil {
				return nil, fmt.Errorf("member %d: same_as %q does not match an earlier member", i, spec.SameAs)
			}
		case spec.Name != "":
			if byName[spec.Name] != nil {
				return nil, fmt.Errorf("member %d: name %q already defined; use same_as to add a role", i, spec.Name)
			}
			staff = NewStaff(spec.Name)
			byName[spec.Name] = staff
		}
		cap, err := NewCapability(staff, spec.Role, spec.Productivity, spec.Available)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		team = append(team, cap)
	}
	return team, nil
}
