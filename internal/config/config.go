package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"scrumline/internal/domain"
)

// ErrInvalid wraps every configuration validation failure. Malformed config
// is fatal to a run; there is nothing to recover to.
var ErrInvalid = errors.New("invalid configuration")

// BacklogFile models a backlog YAML file.
type BacklogFile struct {
	Stories []domain.StorySpec `yaml:"stories"`
}

// TeamFile models a team YAML file.
type TeamFile struct {
	Members []domain.MemberSpec `yaml:"members"`
}

// DeriveProfile expands a point estimate into per-status effort hours. The
// curve matches historical calibration: a point is a seven-hour development
// day, resolution is a single handover hour, and deployment verification runs
// at sixty percent of development.
func DeriveProfile(points int) map[domain.Status]int {
	base := points * 7
	return map[domain.Status]int{
		domain.StatusActive:   base,
		domain.StatusResolved: 1,
		domain.StatusDeployed: int(math.Ceil(float64(base) * 0.6)),
	}
}

// LoadBacklog reads, normalizes, and validates a backlog file.
func LoadBacklog(path string) ([]domain.StorySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backlog: %w", err)
	}
	return ParseBacklog(data)
}

// ParseBacklog parses backlog YAML and normalizes it via NormalizeBacklog.
func ParseBacklog(data []byte) ([]domain.StorySpec, error) {
	var f BacklogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: backlog yaml: %v", ErrInvalid, err)
	}
	return NormalizeBacklog(f.Stories)
}

// NormalizeBacklog validates story specs and fills in defaults: a missing
// status starts active, and a missing work profile is derived from points.
func NormalizeBacklog(specs []domain.StorySpec) ([]domain.StorySpec, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: backlog has no stories", ErrInvalid)
	}
	out := make([]domain.StorySpec, len(specs))
	for i, spec := range specs {
		if spec.Title == "" {
			return nil, fmt.Errorf("%w: story %d: title is required", ErrInvalid, i)
		}
		if spec.Points < 1 {
			return nil, fmt.Errorf("%w: story %q: points must be positive", ErrInvalid, spec.Title)
		}
		if spec.Status == "" {
			spec.Status = domain.StatusActive
		}
		if !spec.Status.Valid() {
			return nil, fmt.Errorf("%w: story %q: unknown status %q", ErrInvalid, spec.Title, spec.Status)
		}
		if len(spec.Profile) == 0 {
			spec.Profile = DeriveProfile(spec.Points)
		} else {
			profile := make(map[domain.Status]int, len(spec.Profile))
			for st, hours := range spec.Profile {
				if !st.Valid() {
					return nil, fmt.Errorf("%w: story %q: unknown profile status %q", ErrInvalid, spec.Title, st)
				}
				if hours < 0 {
					return nil, fmt.Errorf("%w: story %q: negative effort for %s", ErrInvalid, spec.Title, st)
				}
				profile[st] = hours
			}
			spec.Profile = profile
		}
		out[i] = spec
	}
	return out, nil
}

// GenerateDefaultBacklog returns starter backlog YAML.
func GenerateDefaultBacklog() string { return defaultBacklog }

// GenerateDefaultTeam returns starter team YAML.
func GenerateDefaultTeam() string { return defaultTeam }

const defaultBacklog = `stories:
  - title: user-login
    points: 2
  - title: search
    points: 3
  - title: checkout
    points: 5
`

const defaultTeam = `members:
  - name: dee
    role: developer
  - name: olly
    role: ops
  - name: quinn
    role: qa
  # quinn also develops early in the week
  - same_as: quinn
    role: developer
    available: [1, 2, 3]
`

// LoadTeam reads, normalizes, and validates a team file.
func LoadTeam(path string) ([]domain.MemberSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read team: %w", err)
	}
	return ParseTeam(data)
}

// ParseTeam parses team YAML and normalizes it via NormalizeTeam.
func ParseTeam(data []byte) ([]domain.MemberSpec, error) {
	var f TeamFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: team yaml: %v", ErrInvalid, err)
	}
	return NormalizeTeam(f.Members)
}

// NormalizeTeam validates member specs and fills in defaults: productivity 1
// and a Monday-to-Friday week. Each member must carry either a fresh name or
// a same_as reference to an earlier member, and one person cannot hold the
// same role twice.
func NormalizeTeam(specs []domain.MemberSpec) ([]domain.MemberSpec, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: team has no members", ErrInvalid)
	}
	seen := map[string]bool{}
	roles := map[string]map[domain.Role]bool{}
	out := make([]domain.MemberSpec, len(specs))
	for i, spec := range specs {
		if !spec.Role.Valid() {
			return nil, fmt.Errorf("%w: member %d: unknown role %q", ErrInvalid, i, spec.Role)
		}
		name := spec.Name
		switch {
		case spec.SameAs != "":
			if spec.Name != "" && spec.Name != spec.SameAs {
				return nil, fmt.Errorf("%w: member %d: name and same_as conflict", ErrInvalid, i)
			}
			if !seen[spec.SameAs] {
				return nil, fmt.Errorf("%w: member %d: same_as %q does not match an earlier member", ErrInvalid, i, spec.SameAs)
			}
			name = spec.SameAs
		case spec.Name == "":
			return nil, fmt.Errorf("%w: member %d: either name or same_as is required", ErrInvalid, i)
		case seen[spec.Name]:
			return nil, fmt.Errorf("%w: member %d: name %q already defined; use same_as to add a role", ErrInvalid, i, spec.Name)
		default:
			seen[spec.Name] = true
		}
		if roles[name] == nil {
			roles[name] = map[domain.Role]bool{}
		}
		if roles[name][spec.Role] {
			return nil, fmt.Errorf("%w: member %q: duplicate role %s", ErrInvalid, name, spec.Role)
		}
		roles[name][spec.Role] = true
		if spec.Productivity == 0 {
			spec.Productivity = 1
		}
		if spec.Productivity < 1 {
			return nil, fmt.Errorf("%w: member %q: productivity must be positive", ErrInvalid, name)
		}
		if len(spec.Available) == 0 {
			spec.Available = []int{1, 2, 3, 4, 5}
		}
		for _, d := range spec.Available {
			if d < 0 || d > 6 {
				return nil, fmt.Errorf("%w: member %q: weekday %d out of range", ErrInvalid, name, d)
			}
		}
		out[i] = spec
	}
	return out, nil
}
