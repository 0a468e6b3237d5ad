package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scrumline/internal/domain"
)

func TestDeriveProfile(t *testing.T) {
	p := DeriveProfile(2)
	if p[domain.StatusActive] != 14 {
		t.Fatalf("active = %d, want 14", p[domain.StatusActive])
	}
	if p[domain.StatusResolved] != 1 {
		t.Fatalf("resolved = %d, want 1", p[domain.StatusResolved])
	}
	// 60% of 14 rounds up.
	if p[domain.StatusDeployed] != 9 {
		t.Fatalf("deployed = %d, want 9", p[domain.StatusDeployed])
	}
}

func TestParseBacklogDefaults(t *testing.T) {
	stories, err := ParseBacklog([]byte(`
stories:
  - title: login
    points: 2
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stories) != 1 {
		t.Fatalf("stories = %d, want 1", len(stories))
	}
	s := stories[0]
	if s.Status != domain.StatusActive {
		t.Fatalf("status = %s, want default active", s.Status)
	}
	if s.Profile[domain.StatusActive] != 14 {
		t.Fatalf("profile active = %d, want derived 14", s.Profile[domain.StatusActive])
	}
}

func TestParseBacklogExplicitProfile(t *testing.T) {
	stories, err := ParseBacklog([]byte(`
stories:
  - title: login
    points: 2
    status: resolved
    profile:
      resolved: 3
      deployed: 5
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := stories[0]
	if s.Status != domain.StatusResolved {
		t.Fatalf("status = %s, want resolved", s.Status)
	}
	if s.Profile[domain.StatusResolved] != 3 || s.Profile[domain.StatusDeployed] != 5 {
		t.Fatalf("profile = %v, want explicit values kept", s.Profile)
	}
}

func TestParseBacklogRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          `stories: []`,
		"missing title":  "stories:\n  - points: 2",
		"zero points":    "stories:\n  - title: x\n    points: 0",
		"bad status":     "stories:\n  - title: x\n    points: 1\n    status: shipped",
		"bad profile":    "stories:\n  - title: x\n    points: 1\n    profile: {shipped: 2}",
		"negative hours": "stories:\n  - title: x\n    points: 1\n    profile: {active: -1}",
	}
	for name, yaml := range cases {
		if _, err := ParseBacklog([]byte(yaml)); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: got %v, want ErrInvalid", name, err)
		}
	}
}

func TestParseTeamDefaults(t *testing.T) {
	members, err := ParseTeam([]byte(`
members:
  - name: dee
    role: developer
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := members[0]
	if m.Productivity != 1 {
		t.Fatalf("productivity = %d, want default 1", m.Productivity)
	}
	if len(m.Available) != 5 || m.Available[0] != 1 || m.Available[4] != 5 {
		t.Fatalf("available = %v, want Mon-Fri", m.Available)
	}
}

func TestParseTeamSameAs(t *testing.T) {
	members, err := ParseTeam([]byte(`
members:
  - name: robin
    role: developer
  - same_as: robin
    role: qa
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if members[1].SameAs != "robin" {
		t.Fatalf("same_as = %q, want robin", members[1].SameAs)
	}
}

func TestParseTeamRejects(t *testing.T) {
	cases := map[string]string{
		"empty":               `members: []`,
		"unknown role":        "members:\n  - name: x\n    role: designer",
		"nameless":            "members:\n  - role: developer",
		"duplicate name":      "members:\n  - name: x\n    role: developer\n  - name: x\n    role: qa",
		"forward same_as":     "members:\n  - same_as: y\n    role: qa\n  - name: y\n    role: developer",
		"duplicate role":      "members:\n  - name: x\n    role: qa\n  - same_as: x\n    role: qa",
		"negative prod":       "members:\n  - name: x\n    role: developer\n    productivity: -2",
		"weekday out of range": "members:\n  - name: x\n    role: developer\n    available: [1, 9]",
	}
	for name, yaml := range cases {
		if _, err := ParseTeam([]byte(yaml)); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: got %v, want ErrInvalid", name, err)
		}
	}
}

func TestGeneratedDefaultsParse(t *testing.T) {
	stories, err := ParseBacklog([]byte(GenerateDefaultBacklog()))
	if err != nil {
		t.Fatalf("default backlog: %v", err)
	}
	if len(stories) == 0 {
		t.Fatal("default backlog should not be empty")
	}
	members, err := ParseTeam([]byte(GenerateDefaultTeam()))
	if err != nil {
		t.Fatalf("default team: %v", err)
	}
	roles := map[domain.Role]bool{}
	for _, m := range members {
		roles[m.Role] = true
	}
	for _, role := range domain.Roles {
		if !roles[role] {
			t.Fatalf("default team missing role %s", role)
		}
	}
}

func TestLoadBacklogMissingFile(t *testing.T) {
	if _, err := LoadBacklog(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBacklogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.yml")
	data := []byte("stories:\n  - title: login\n    points: 1\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stories, err := LoadBacklog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stories) != 1 || stories[0].Title != "login" {
		t.Fatalf("stories = %+v", stories)
	}
}
