// Package gitlab wraps the official GitLab REST client behind one creation
// method per entity kind, keyed by container references (group full paths
// and project paths) and opaque string remote ids.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lmazure/GitLabInjector/pkg/types"
	gl "gitlab.com/gitlab-org/api/client-go"
)

// Client wraps the GitLab REST client.
type Client struct {
	gl *gl.Client

	mu       sync.Mutex
	groupIDs map[string]int // group full path -> numeric id
	// GitLab attaches labels to epics and issues by name, while the engine
	// resolves label references to remote ids. Remember the name behind each
	// id so creation calls can translate back.
	labelNames map[string]string
}

// NewClient builds a client for the given instance URL and personal access
// token.
func NewClient(baseURL, token string) (*Client, error) {
	c, err := gl.NewClient(token, gl.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return &Client{
		gl:         c,
		groupIDs:   make(map[string]int),
		labelNames: make(map[string]string),
	}, nil
}

// CurrentUser returns the user the token authenticates as.
func (c *Client) CurrentUser(ctx context.Context) (*gl.User, error) {
	user, _, err := c.gl.Users.CurrentUser(gl.WithContext(ctx))
	return user, err
}

// ResolveUser looks up a GitLab user by username and returns its id.
func (c *Client) ResolveUser(ctx context.Context, username string) (string, error) {
	users, _, err := c.gl.Users.ListUsers(&gl.ListUsersOptions{Username: gl.Ptr(username)}, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("no user with username %q", username)
	}
	return strconv.Itoa(users[0].ID), nil
}

// CreateGroup creates a group under parentRef, or a top-level group when
// parentRef is empty. The returned reference is the group's full path.
func (c *Client) CreateGroup(ctx context.Context, parentRef, name, description string) (string, error) {
	opts := &gl.CreateGroupOptions{
		Name:        gl.Ptr(name),
		Path:        gl.Ptr(slugify(name)),
		Description: gl.Ptr(description),
		Visibility:  gl.Ptr(gl.PrivateVisibility),
	}
	if parentRef != "" {
		parentID, err := c.groupID(ctx, parentRef)
		if err != nil {
			return "", err
		}
		opts.ParentID = gl.Ptr(parentID)
	}
	group, _, err := c.gl.Groups.CreateGroup(opts, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.groupIDs[group.FullPath] = group.ID
	c.mu.Unlock()
	return group.FullPath, nil
}

// CreateProject creates a project in the given group and returns its path
// with namespace.
func (c *Client) CreateProject(ctx context.Context, groupRef, name, description string) (string, error) {
	namespaceID, err := c.groupID(ctx, groupRef)
	if err != nil {
		return "", err
	}
	project, _, err := c.gl.Projects.CreateProject(&gl.CreateProjectOptions{
		Name:                 gl.Ptr(name),
		Path:                 gl.Ptr(slugify(name)),
		Description:          gl.Ptr(description),
		NamespaceID:          gl.Ptr(namespaceID),
		Visibility:           gl.Ptr(gl.PrivateVisibility),
		InitializeWithReadme: gl.Ptr(true),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return project.PathWithNamespace, nil
}

// CreateLabel creates a group label.
func (c *Client) CreateLabel(ctx context.Context, groupRef string, p LabelParams) (string, error) {
	label, _, err := c.gl.GroupLabels.CreateGroupLabel(groupRef, &gl.CreateGroupLabelOptions{
		Name:        gl.Ptr(p.Name),
		Color:       gl.Ptr(normalizeColor(p.Color)),
		Description: gl.Ptr(p.Description),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	remoteID := strconv.Itoa(int(label.ID))
	c.mu.Lock()
	c.labelNames[remoteID] = label.Name
	c.mu.Unlock()
	return remoteID, nil
}

// CreateEpic creates a group epic, closing it afterwards if its state is
// "closed".
func (c *Client) CreateEpic(ctx context.Context, groupRef string, p EpicParams) (string, error) {
	opts := &gl.CreateEpicOptions{
		Title:       gl.Ptr(p.Title),
		Description: gl.Ptr(p.Description),
	}
	if names := c.labelsByID(p.LabelIDs); len(names) > 0 {
		opts.Labels = gl.Ptr(gl.LabelOptions(names))
	}
	if p.ParentEpicID != "" {
		parentID, err := strconv.Atoi(p.ParentEpicID)
		if err != nil {
			return "", fmt.Errorf("invalid parent epic id %q: %w", p.ParentEpicID, err)
		}
		opts.ParentID = gl.Ptr(parentID)
	}
	epic, _, err := c.gl.Epics.CreateEpic(groupRef, opts, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if p.State == "closed" {
		_, _, err = c.gl.Epics.UpdateEpic(groupRef, epic.IID, &gl.UpdateEpicOptions{
			StateEvent: gl.Ptr("close"),
		}, gl.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to close epic: %w", err)
		}
	}
	return strconv.Itoa(epic.ID), nil
}

// CreateIteration creates a group iteration. client-go has no typed helper
// for manual iteration creation, so this goes through the low-level request
// API.
func (c *Client) CreateIteration(ctx context.Context, groupRef string, p IterationParams) (string, error) {
	body := struct {
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		StartDate   string `json:"start_date,omitempty"`
		DueDate     string `json:"due_date,omitempty"`
	}{
		Title:       p.Title,
		Description: p.Description,
		StartDate:   p.StartDate,
		DueDate:     p.DueDate,
	}
	path := fmt.Sprintf("groups/%s/iterations", gl.PathEscape(groupRef))
	req, err := c.gl.NewRequest(http.MethodPost, path, body, []gl.RequestOptionFunc{gl.WithContext(ctx)})
	if err != nil {
		return "", err
	}
	var iteration struct {
		ID int `json:"id"`
	}
	if _, err := c.gl.Do(req, &iteration); err != nil {
		return "", err
	}
	return strconv.Itoa(iteration.ID), nil
}

// CreateGroupMilestone creates a milestone on a group.
func (c *Client) CreateGroupMilestone(ctx context.Context, groupRef string, p MilestoneParams) (string, error) {
	opts := &gl.CreateGroupMilestoneOptions{
		Title:       gl.Ptr(p.Title),
		Description: gl.Ptr(p.Description),
	}
	var err error
	if opts.StartDate, err = isoDate(p.StartDate); err != nil {
		return "", err
	}
	if opts.DueDate, err = isoDate(p.DueDate); err != nil {
		return "", err
	}
	milestone, _, err := c.gl.GroupMilestones.CreateGroupMilestone(groupRef, opts, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if p.State == "closed" {
		_, _, err = c.gl.GroupMilestones.UpdateGroupMilestone(groupRef, milestone.ID, &gl.UpdateGroupMilestoneOptions{
			StateEvent: gl.Ptr("close"),
		}, gl.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to close milestone: %w", err)
		}
	}
	return strconv.Itoa(milestone.ID), nil
}

// CreateProjectMilestone creates a milestone on a project.
func (c *Client) CreateProjectMilestone(ctx context.Context, projectRef string, p MilestoneParams) (string, error) {
	opts := &gl.CreateMilestoneOptions{
		Title:       gl.Ptr(p.Title),
		Description: gl.Ptr(p.Description),
	}
	var err error
	if opts.StartDate, err = isoDate(p.StartDate); err != nil {
		return "", err
	}
	if opts.DueDate, err = isoDate(p.DueDate); err != nil {
		return "", err
	}
	milestone, _, err := c.gl.Milestones.CreateMilestone(projectRef, opts, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if p.State == "closed" {
		_, _, err = c.gl.Milestones.UpdateMilestone(projectRef, milestone.ID, &gl.UpdateMilestoneOptions{
			StateEvent: gl.Ptr("close"),
		}, gl.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to close milestone: %w", err)
		}
	}
	return strconv.Itoa(milestone.ID), nil
}

// CreateIssue creates a project issue with its resolved references attached.
func (c *Client) CreateIssue(ctx context.Context, projectRef string, p IssueParams) (string, error) {
	opts := &gl.CreateIssueOptions{
		Title:       gl.Ptr(p.Title),
		Description: gl.Ptr(p.Description),
		Weight:      p.Weight,
	}
	if names := c.labelsByID(p.LabelIDs); len(names) > 0 {
		opts.Labels = gl.Ptr(gl.LabelOptions(names))
	}
	if p.EpicID != "" {
		epicID, err := strconv.Atoi(p.EpicID)
		if err != nil {
			return "", fmt.Errorf("invalid epic id %q: %w", p.EpicID, err)
		}
		opts.EpicID = gl.Ptr(epicID)
	}
	if p.MilestoneID != "" {
		milestoneID, err := strconv.Atoi(p.MilestoneID)
		if err != nil {
			return "", fmt.Errorf("invalid milestone id %q: %w", p.MilestoneID, err)
		}
		opts.MilestoneID = gl.Ptr(milestoneID)
	}
	if len(p.AssigneeIDs) > 0 {
		ids := make([]int, 0, len(p.AssigneeIDs))
		for _, raw := range p.AssigneeIDs {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return "", fmt.Errorf("invalid assignee id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}
		opts.AssigneeIDs = gl.Ptr(ids)
	}
	issue, _, err := c.gl.Issues.CreateIssue(projectRef, opts, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if p.IterationID != "" {
		if err := c.assignIteration(ctx, projectRef, issue.IID, p.IterationID); err != nil {
			return "", err
		}
	}
	if p.State == "closed" {
		_, _, err = c.gl.Issues.UpdateIssue(projectRef, issue.IID, &gl.UpdateIssueOptions{
			StateEvent: gl.Ptr("close"),
		}, gl.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to close issue: %w", err)
		}
	}
	return strconv.Itoa(issue.ID), nil
}

// assignIteration sets an issue's iteration. There is no typed option for
// iteration_id on issue updates, so this goes through the low-level request
// API.
func (c *Client) assignIteration(ctx context.Context, projectRef string, issueIID int, iterationID string) error {
	id, err := strconv.Atoi(iterationID)
	if err != nil {
		return fmt.Errorf("invalid iteration id %q: %w", iterationID, err)
	}
	body := struct {
		IterationID int `json:"iteration_id"`
	}{IterationID: id}
	path := fmt.Sprintf("projects/%s/issues/%d", gl.PathEscape(projectRef), issueIID)
	req, err := c.gl.NewRequest(http.MethodPut, path, body, []gl.RequestOptionFunc{gl.WithContext(ctx)})
	if err != nil {
		return err
	}
	if _, err := c.gl.Do(req, nil); err != nil {
		return fmt.Errorf("failed to assign iteration: %w", err)
	}
	return nil
}

// CreateGroupMember adds a user to a group.
func (c *Client) CreateGroupMember(ctx context.Context, groupRef, userID string, role types.Role) (string, error) {
	id, err := strconv.Atoi(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	member, _, err := c.gl.GroupMembers.AddGroupMember(groupRef, &gl.AddGroupMemberOptions{
		UserID:      gl.Ptr(id),
		AccessLevel: gl.Ptr(accessLevel(role)),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return strconv.Itoa(member.ID), nil
}

// CreateProjectMember adds a user to a project.
func (c *Client) CreateProjectMember(ctx context.Context, projectRef, userID string, role types.Role) (string, error) {
	id, err := strconv.Atoi(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	member, _, err := c.gl.ProjectMembers.AddProjectMember(projectRef, &gl.AddProjectMemberOptions{
		UserID:      gl.Ptr(id),
		AccessLevel: gl.Ptr(accessLevel(role)),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return strconv.Itoa(member.ID), nil
}

// groupID resolves a group full path to its numeric id, caching results.
func (c *Client) groupID(ctx context.Context, fullPath string) (int, error) {
	c.mu.Lock()
	id, ok := c.groupIDs[fullPath]
	c.mu.Unlock()
	if ok {
		return id, nil
	}
	group, _, err := c.gl.Groups.GetGroup(fullPath, nil, gl.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to look up group %q: %w", fullPath, err)
	}
	c.mu.Lock()
	c.groupIDs[fullPath] = group.ID
	c.mu.Unlock()
	return group.ID, nil
}

// labelsByID translates remote label ids back to label names, in order.
// Ids without a cached name are ignored; the engine only passes ids this
// client returned.
func (c *Client) labelsByID(ids []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	for _, id := range ids {
		if name, ok := c.labelNames[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// accessLevel maps a document role to a GitLab access level.
func accessLevel(role types.Role) gl.AccessLevelValue {
	switch role {
	case types.RoleGuest:
		return gl.GuestPermissions
	case types.RolePlanner:
		return gl.PlannerPermissions
	case types.RoleReporter:
		return gl.ReporterPermissions
	case types.RoleDeveloper:
		return gl.DeveloperPermissions
	case types.RoleMaintainer:
		return gl.MaintainerPermissions
	case types.RoleOwner:
		return gl.OwnerPermissions
	}
	return gl.GuestPermissions
}

// slugify turns an entity name into a URL-friendly path segment.
func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// normalizeColor ensures the leading '#' GitLab expects on label colors.
func normalizeColor(color string) string {
	if color != "" && !strings.HasPrefix(color, "#") {
		return "#" + color
	}
	return color
}

// isoDate parses a YYYY-MM-DD date into the wire format, or nil when absent.
func isoDate(date string) (*gl.ISOTime, error) {
	if date == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	iso := gl.ISOTime(t)
	return &iso, nil
}
