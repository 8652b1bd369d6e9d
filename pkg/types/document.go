package types

// Document is the root of a YAML structure definition. Users are declared
// once at the root and resolved before any group is traversed, so member and
// assignee references are resolvable from the first group onward.
type Document struct {
	Users  []User  `yaml:"users" json:"users,omitempty"`
	Groups []Group `yaml:"groups" json:"groups"`
}

// User maps a symbolic id to a GitLab username.
type User struct {
	ID       string `yaml:"id" json:"id"`
	Username string `yaml:"username" json:"username"`
}

// Group defines a GitLab group or subgroup. Groups nest; projects do not.
type Group struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Labels      []Label     `yaml:"labels" json:"labels,omitempty"`
	Epics       []Epic      `yaml:"epics" json:"epics,omitempty"`
	Iterations  []Iteration `yaml:"iterations" json:"iterations,omitempty"`
	Milestones  []Milestone `yaml:"milestones" json:"milestones,omitempty"`
	Members     []Member    `yaml:"members" json:"members,omitempty"`
	Projects    []Project   `yaml:"projects" json:"projects,omitempty"`
	Subgroups   []Group     `yaml:"subgroups" json:"subgroups,omitempty"`
}

// Project defines a GitLab project inside a group.
type Project struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Milestones  []Milestone `yaml:"milestones" json:"milestones,omitempty"`
	Issues      []Issue     `yaml:"issues" json:"issues,omitempty"`
	Members     []Member    `yaml:"members" json:"members,omitempty"`
}

// Label defines a group label. Color is a 6-hex-digit RGB value, with or
// without a leading '#'.
type Label struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Color       string `yaml:"color" json:"color"`
}

// Epic defines a group epic. ParentEpicID and LabelIDs are symbolic
// references to earlier-declared epics and labels.
type Epic struct {
	ID           string   `yaml:"id" json:"id"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description,omitempty"`
	State        string   `yaml:"state" json:"state,omitempty"`
	ParentEpicID string   `yaml:"parent_epic_id" json:"parent_epic_id,omitempty"`
	LabelIDs     []string `yaml:"label_ids" json:"label_ids,omitempty"`
}

// Iteration defines a group iteration. Dates are calendar dates in
// YYYY-MM-DD form.
type Iteration struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description,omitempty"`
	StartDate   string `yaml:"start_date" json:"start_date,omitempty"`
	DueDate     string `yaml:"due_date" json:"due_date,omitempty"`
	State       string `yaml:"state" json:"state,omitempty"`
}

// Milestone defines a group or project milestone.
type Milestone struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description,omitempty"`
	StartDate   string `yaml:"start_date" json:"start_date,omitempty"`
	DueDate     string `yaml:"due_date" json:"due_date,omitempty"`
	State       string `yaml:"state" json:"state,omitempty"`
}

// Issue defines a project issue. All reference fields are symbolic ids;
// AssigneeIDs reference users declared at the document root.
type Issue struct {
	ID           string   `yaml:"id" json:"id"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description,omitempty"`
	State        string   `yaml:"state" json:"state,omitempty"`
	ParentEpicID string   `yaml:"parent_epic_id" json:"parent_epic_id,omitempty"`
	MilestoneID  string   `yaml:"milestone_id" json:"milestone_id,omitempty"`
	IterationID  string   `yaml:"iteration_id" json:"iteration_id,omitempty"`
	LabelIDs     []string `yaml:"label_ids" json:"label_ids,omitempty"`
	AssigneeIDs  []string `yaml:"assignee_ids" json:"assignee_ids,omitempty"`
	Weight       *int     `yaml:"weight" json:"weight,omitempty"`
}

// Member attaches a user to a group or project with a role.
type Member struct {
	UserID string `yaml:"user_id" json:"user_id"`
	Role   Role   `yaml:"role" json:"role"`
}

// Role is a GitLab membership role.
type Role string

const (
	RoleGuest      Role = "guest"
	RolePlanner    Role = "planner"
	RoleReporter   Role = "reporter"
	RoleDeveloper  Role = "developer"
	RoleMaintainer Role = "maintainer"
	RoleOwner      Role = "owner"
)

// Roles lists the valid membership roles in ascending order of access.
var Roles = []Role{RoleGuest, RolePlanner, RoleReporter, RoleDeveloper, RoleMaintainer, RoleOwner}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}
