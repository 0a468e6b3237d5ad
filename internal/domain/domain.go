package domain

// Status is a story's position in the delivery lifecycle.
//
// The full documented cycle is
//
//	new -> ready -> active -> resolved -> deployed -> closed -> good -> live
//
// with deployed/closed able to regress to active on failure. Only the
// active..closed segment is produced by the built-in roles today; the outer
// states are declared so configs and future roles can reference them.
type Status string

const (
	StatusNew      Status = "new"
	StatusReady    Status = "ready"
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusDeployed Status = "deployed"
	StatusClosed   Status = "closed"
	StatusGood     Status = "good"
	StatusLive     Status = "live"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusNew, StatusReady, StatusActive, StatusResolved,
	StatusDeployed, StatusClosed, StatusGood, StatusLive,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// Role is a capability category.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleOps       Role = "ops"
	RoleQA        Role = "qa"
)

var Roles = []Role{RoleDeveloper, RoleOps, RoleQA}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// StorySpec is one backlog entry as loaded from configuration. Profile maps a
// status to the effort hours required in that status; when empty it is
// derived from Points.
type StorySpec struct {
	Title   string         `yaml:"title" json:"title"`
	Points  int            `yaml:"points" json:"points"`
	Status  Status         `yaml:"status,omitempty" json:"status,omitempty"`
	Profile map[Status]int `yaml:"profile,omitempty" json:"profile,omitempty"`
}

// MemberSpec is one team entry as loaded from configuration. SameAs attaches
// this role to a previously defined member instead of introducing a new name.
type MemberSpec struct {
	Name         string `yaml:"name,omitempty" json:"name,omitempty"`
	Role         Role   `yaml:"role" json:"role"`
	Productivity int    `yaml:"productivity,omitempty" json:"productivity,omitempty"`
	Available    []int  `yaml:"available,omitempty" json:"available,omitempty"`
	SameAs       string `yaml:"same_as,omitempty" json:"same_as,omitempty"`
}

// Event types emitted during a run.
const (
	EventRunStarted     = "run.started"
	EventDayStarted     = "day.started"
	EventDayEnded       = "day.ended"
	EventStoryAssigned  = "story.assigned"
	EventStoryProgress  = "story.progressed"
	EventStageCompleted = "story.stage.completed"
	EventRunStalled     = "run.stalled"
)

// Event is one entry in a run's event stream.
type Event struct {
	Seq     int            `json:"seq"`
	Day     int            `json:"day"`
	Hour    int            `json:"hour"`
	Type    string         `json:"type"`
	Story   string         `json:"story,omitempty"`
	Actor   string         `json:"actor,omitempty"`
	Role    Role           `json:"role,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// StoryState is a point-in-time backlog snapshot row, carried in day-summary
// and stall event payloads.
type StoryState struct {
	Title     string `json:"title"`
	Status    Status `json:"status"`
	Remaining int    `json:"remaining"`
	Assignee  string `json:"assignee,omitempty"`
}

// Run is a persisted simulation run.
type Run struct {
	ID               string `json:"id"`
	StartedAt        string `json:"started_at" format:"date-time"`
	FinishedAt       string `json:"finished_at" format:"date-time"`
	Days             int    `json:"days"`
	Hours            int    `json:"hours"`
	StoriesTotal     int    `json:"stories_total"`
	StoriesClosed    int    `json:"stories_closed"`
	PickSmallerFirst bool   `json:"pick_smaller_first"`
}
