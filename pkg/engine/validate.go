package engine

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lmazure/GitLabInjector/pkg/types"
)

// maxNestingDepth bounds group/subgroup recursion so a pathological document
// cannot blow the stack.
const maxNestingDepth = 20

var colorPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// ConfigurationError reports a document that failed required-field checks
// before traversal. It aborts the run before any creation call is made.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid structure definition: %d problem(s)", len(e.Problems))
}

// ValidateDocument checks the structure definition for problems that must
// abort the run: missing required fields, malformed colors and dates, unknown
// states and roles, negative weights, and excessive nesting. It returns one
// message per problem, in document order.
func ValidateDocument(doc types.Document) []string {
	var errs []string

	for i, user := range doc.Users {
		if user.ID == "" {
			errs = append(errs, fmt.Sprintf("users[%d]: id is required", i))
		}
		if user.Username == "" {
			errs = append(errs, fmt.Sprintf("users[%d]: username is required", i))
		}
	}

	if len(doc.Groups) == 0 {
		errs = append(errs, "at least one group is required")
	}
	for i, group := range doc.Groups {
		errs = append(errs, validateGroup(fmt.Sprintf("groups[%d]", i), group, 1)...)
	}

	return errs
}

func validateGroup(path string, group types.Group, depth int) []string {
	var errs []string

	if group.Name == "" {
		errs = append(errs, path+": name is required")
	}
	if depth > maxNestingDepth {
		errs = append(errs, fmt.Sprintf("%s: groups nested deeper than %d levels", path, maxNestingDepth))
		return errs
	}

	for i, label := range group.Labels {
		p := fmt.Sprintf("%s.labels[%d]", path, i)
		if label.ID == "" {
			errs = append(errs, p+": id is required")
		}
		if label.Name == "" {
			errs = append(errs, p+": name is required")
		}
		if !colorPattern.MatchString(label.Color) {
			errs = append(errs, fmt.Sprintf("%s: color %q is not a 6-hex-digit RGB value", p, label.Color))
		}
	}

	for i, epic := range group.Epics {
		p := fmt.Sprintf("%s.epics[%d]", path, i)
		if epic.ID == "" {
			errs = append(errs, p+": id is required")
		}
		if epic.Title == "" {
			errs = append(errs, p+": title is required")
		}
		if epic.State != "" && epic.State != "opened" && epic.State != "closed" {
			errs = append(errs, fmt.Sprintf("%s: state %q must be opened or closed", p, epic.State))
		}
	}

	for i, iteration := range group.Iterations {
		p := fmt.Sprintf("%s.iterations[%d]", path, i)
		if iteration.ID == "" {
			errs = append(errs, p+": id is required")
		}
		if iteration.Title == "" {
			errs = append(errs, p+": title is required")
		}
		errs = append(errs, validateDate(p, "start_date", iteration.StartDate)...)
		errs = append(errs, validateDate(p, "due_date", iteration.DueDate)...)
	}

	for i, milestone := range group.Milestones {
		errs = append(errs, validateMilestone(fmt.Sprintf("%s.milestones[%d]", path, i), milestone)...)
	}

	for i, member := range group.Members {
		errs = append(errs, validateMember(fmt.Sprintf("%s.members[%d]", path, i), member)...)
	}

	for i, project := range group.Projects {
		errs = append(errs, validateProject(fmt.Sprintf("%s.projects[%d]", path, i), project)...)
	}

	for i, subgroup := range group.Subgroups {
		errs = append(errs, validateGroup(fmt.Sprintf("%s.subgroups[%d]", path, i), subgroup, depth+1)...)
	}

	return errs
}

func validateProject(path string, project types.Project) []string {
	var errs []string

	if project.Name == "" {
		errs = append(errs, path+": name is required")
	}

	for i, milestone := range project.Milestones {
		errs = append(errs, validateMilestone(fmt.Sprintf("%s.milestones[%d]", path, i), milestone)...)
	}

	for i, issue := range project.Issues {
		p := fmt.Sprintf("%s.issues[%d]", path, i)
		if issue.ID == "" {
			errs = append(errs, p+": id is required")
		}
		if issue.Title == "" {
			errs = append(errs, p+": title is required")
		}
		if issue.State != "" && issue.State != "opened" && issue.State != "closed" {
			errs = append(errs, fmt.Sprintf("%s: state %q must be opened or closed", p, issue.State))
		}
		if issue.Weight != nil && *issue.Weight < 0 {
			errs = append(errs, fmt.Sprintf("%s: weight %d must not be negative", p, *issue.Weight))
		}
	}

	for i, member := range project.Members {
		errs = append(errs, validateMember(fmt.Sprintf("%s.members[%d]", path, i), member)...)
	}

	return errs
}

func validateMilestone(path string, milestone types.Milestone) []string {
	var errs []string
	if milestone.ID == "" {
		errs = append(errs, path+": id is required")
	}
	if milestone.Title == "" {
		errs = append(errs, path+": title is required")
	}
	if milestone.State != "" && milestone.State != "active" && milestone.State != "closed" {
		errs = append(errs, fmt.Sprintf("%s: state %q must be active or closed", path, milestone.State))
	}
	errs = append(errs, validateDate(path, "start_date", milestone.StartDate)...)
	errs = append(errs, validateDate(path, "due_date", milestone.DueDate)...)
	return errs
}

func validateMember(path string, member types.Member) []string {
	var errs []string
	if member.UserID == "" {
		errs = append(errs, path+": user_id is required")
	}
	if !member.Role.Valid() {
		errs = append(errs, fmt.Sprintf("%s: role %q is not a valid role", path, member.Role))
	}
	return errs
}

func validateDate(path, field, value string) []string {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return []string{fmt.Sprintf("%s: %s %q is not a YYYY-MM-DD date", path, field, value)}
	}
	return nil
}
