package sim

import (
	"errors"
	"fmt"

	"scrumline/internal/domain"
)

// ErrNoStaff is returned when a capability is constructed without a staff
// identity to bind to.
var ErrNoStaff = errors.New("capability has no staff identity")

// rolePolicy describes how one role kind behaves: which statuses it pulls,
// where it advances them, what it needs from the shared environment, and
// whether its progress sweeps related backlog stories.
type rolePolicy struct {
	accepts func(domain.Status) bool
	next    domain.Status
	free    func(*Environment) bool
	reserve func(*Environment, string) error
	release func(*Environment, string) error
	// sweeps marks roles whose hourly progress also advances every other
	// backlog story in an accepted status. Ops deploys are a batch: once the
	// lock is held, all resolved work rides along.
	sweeps bool
}

var rolePolicies = map[domain.Role]rolePolicy{
	domain.RoleDeveloper: {
		accepts: func(st domain.Status) bool { return st == domain.StatusActive },
		next:    domain.StatusResolved,
		free:    func(*Environment) bool { return true },
		reserve: func(*Environment, string) error { return nil },
		release: func(*Environment, string) error { return nil },
	},
	domain.RoleOps: {
		accepts: func(st domain.Status) bool { return st == domain.StatusResolved },
		next:    domain.StatusDeployed,
		// Deployment needs the environment up and empty.
		free: func(env *Environment) bool { return env.Available() && !env.HasLogons() },
		reserve: func(env *Environment, _ string) error {
			env.Lock(true)
			return nil
		},
		release: func(env *Environment, _ string) error {
			env.Lock(false)
			return nil
		},
		sweeps: true,
	},
	domain.RoleQA: {
		accepts: func(st domain.Status) bool { return st == domain.StatusDeployed },
		next:    domain.StatusClosed,
		// Testing only needs the environment up; QA sessions coexist.
		free:    func(env *Environment) bool { return env.Available() },
		reserve: func(env *Environment, name string) error { return env.Logon(name) },
		release: func(env *Environment, name string) error { return env.Logoff(name) },
	},
}

// Capability binds a role to a staff identity. Several capabilities may share
// one identity, but the identity's single busy state means only one of them
// can be on a story in any given hour.
type Capability struct {
	staff        *Staff
	role         domain.Role
	productivity int
	available    map[int]bool
	story        *Story
}

// NewCapability builds a capability for staff. A nil staff is a contract
// violation by the loader and is rejected outright.
func NewCapability(staff *Staff, role domain.Role, productivity int, available []int) (*Capability, error) {
	if staff == nil {
		return nil, ErrNoStaff
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if productivity < 1 {
		productivity = 1
	}
	days := make(map[int]bool, len(available))
	for _, d := range available {
		days[d] = true
	}
	return &Capability{
		staff:        staff,
		role:         role,
		productivity: productivity,
		available:    days,
	}, nil
}

func (c *Capability) Name() string      { return c.staff.Name() }
func (c *Capability) Role() domain.Role { return c.role }
func (c *Capability) Staff() *Staff     { return c.staff }
func (c *Capability) Productivity() int { return c.productivity }
func (c *Capability) OnStory() *Story   { return c.story }

func (c *Capability) String() string {
	return fmt.Sprintf("%s(%s)", c.staff.Name(), c.role)
}

// AvailableOn reports whether this capability works on the given weekday
// (Sunday = 0).
func (c *Capability) AvailableOn(weekday int) bool { return c.available[weekday] }

func (c *Capability) setOnStory(story *Story) {
	c.story = story
	c.staff.setActive(c.role, story != nil)
}

// GrabNextStory returns the story this capability will work this hour. A
// capability already on a story continues it; a capability whose person is
// busy in another role picks nothing. Otherwise the backlog is scanned in
// order for unassigned stories in an accepted status with the role's resource
// precondition satisfied, and the tie-break policy chooses among them. Unless
// dryRun is set, a successful pick reserves resources and claims the story;
// the returned bool reports whether a new claim was made.
func (c *Capability) GrabNextStory(backlog *Backlog, env *Environment, smallerFirst, dryRun bool) (*Story, bool, error) {
	if c.story != nil {
		return c.story, false, nil
	}
	if c.staff.Busy() {
		return nil, false, nil
	}
	policy := rolePolicies[c.role]
	var pick *Story
	for _, story := range backlog.Find(policy.accepts, nil) {
		if !policy.free(env) {
			continue
		}
		if pick == nil || story.pickBefore(pick, smallerFirst) {
			pick = story
		}
	}
	if pick == nil || dryRun {
		return pick, false, nil
	}
	if err := policy.reserve(env, c.Name()); err != nil {
		return nil, false, fmt.Errorf("%s reserving resources: %w", c, err)
	}
	c.setOnStory(pick)
	pick.assignTo(c)
	return pick, true, nil
}

// StoryProgress reports one story touched during an hour of work. Applied is
// false when the story had already been drained this hour by another
// capability's sweep.
type StoryProgress struct {
	Story     *Story
	Applied   bool
	Completed bool
}

// ProgressOneHour applies one hour of this capability's effort during the
// given absolute hour. Sweeping roles also advance every other backlog story
// in an accepted status, whether or not anyone holds it. The returned slice
// lists each story touched, held story first.
func (c *Capability) ProgressOneHour(backlog *Backlog, hour int) []StoryProgress {
	policy := rolePolicies[c.role]
	stories := []*Story{c.story}
	if policy.sweeps {
		for _, story := range backlog.Stories() {
			if story != c.story && policy.accepts(story.Status()) {
				stories = append(stories, story)
			}
		}
	}
	out := make([]StoryProgress, 0, len(stories))
	for _, story := range stories {
		applied := story.Progress(c.productivity, policy.next, hour)
		out = append(out, StoryProgress{
			Story:     story,
			Applied:   applied,
			Completed: story.Status() == policy.next,
		})
	}
	return out
}

// JobDone clears the claim, frees the person, and releases any reserved
// resources. Must be called exactly once per completed claim; an unbalanced
// release surfaces as a resource error.
func (c *Capability) JobDone(env *Environment) error {
	c.setOnStory(nil)
	policy := rolePolicies[c.role]
	if err := policy.release(env, c.Name()); err != nil {
		return fmt.Errorf("%s releasing resources: %w", c, err)
	}
	return nil
}
