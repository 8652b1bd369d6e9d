// Package engine implements the entity graph injection engine: it walks a
// parsed structure definition depth-first in declaration order, creates each
// entity through the GitLab client, and registers returned remote ids so
// later entities can reference earlier ones by symbolic id.
//
// References resolve strictly backwards: an id is resolvable only once the
// entity carrying it has been created. The engine never reorders the
// document; a forward reference surfaces as an unresolved-reference warning
// and the referencing entity is created without it.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	glclient "github.com/lmazure/GitLabInjector/pkg/gitlab"
	"github.com/lmazure/GitLabInjector/pkg/registry"
	"github.com/lmazure/GitLabInjector/pkg/types"
)

// Options configures the behavior of Inject.
type Options struct {
	// ParentGroup is the full path of an existing group under which
	// top-level groups are nested. Empty means instance top level.
	ParentGroup string
	// DryRun walks the document without calling the client. Symbolic ids
	// are registered with synthetic remote ids so duplicate-id and
	// unresolved-reference diagnostics still fire; counters stay at zero.
	DryRun bool
	Logger *slog.Logger
}

// injector carries the single-owner mutable state threaded through the
// traversal.
type injector struct {
	client GitLabClient
	reg    *registry.Registry
	report *Report
	log    *slog.Logger
	dryRun bool
	seq    int
}

// Inject replays a structure definition against GitLab. It validates the
// document first and aborts before any side effect if that fails; after
// that, failures are local to one entity (plus its descendants for
// containers) and the run continues.
func Inject(ctx context.Context, client GitLabClient, doc types.Document, opts Options) (*Report, error) {
	if problems := ValidateDocument(doc); len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	in := &injector{
		client: client,
		reg:    registry.New(),
		report: NewReport(),
		log:    log,
		dryRun: opts.DryRun,
	}

	// Users first, so member and assignee references resolve from the first
	// group onward.
	in.resolveUsers(ctx, doc.Users)

	for _, group := range doc.Groups {
		in.injectGroup(ctx, opts.ParentGroup, group)
	}
	return in.report, nil
}

func (in *injector) resolveUsers(ctx context.Context, users []types.User) {
	for _, user := range users {
		if in.alreadyMapped(registry.User, user.ID) {
			continue
		}
		username := user.Username
		in.dispatch(ctx, registry.User, user.ID, username, func(ctx context.Context) (string, error) {
			return in.client.ResolveUser(ctx, username)
		})
	}
}

// injectGroup creates a group and then its contents in the mandated order:
// labels, epics, iterations, milestones, members, projects, subgroups.
// Epics reference labels and issues reference epics, milestones, iterations
// and users, so each kind is created before anything that may reference it.
func (in *injector) injectGroup(ctx context.Context, parentRef string, group types.Group) {
	groupRef, ok := in.dispatch(ctx, registry.Group, "", group.Name, func(ctx context.Context) (string, error) {
		return in.client.CreateGroup(ctx, parentRef, group.Name, group.Description)
	})
	if !ok {
		in.cascadeGroup(group)
		return
	}

	for _, label := range group.Labels {
		in.injectLabel(ctx, groupRef, label)
	}
	for _, epic := range group.Epics {
		in.injectEpic(ctx, groupRef, epic)
	}
	for _, iteration := range group.Iterations {
		in.injectIteration(ctx, groupRef, iteration)
	}
	for _, milestone := range group.Milestones {
		in.injectMilestone(ctx, groupRef, milestone, false)
	}
	for _, member := range group.Members {
		in.injectMember(ctx, groupRef, member, false)
	}
	for _, project := range group.Projects {
		in.injectProject(ctx, groupRef, project)
	}
	for _, subgroup := range group.Subgroups {
		in.injectGroup(ctx, groupRef, subgroup)
	}
}

func (in *injector) injectProject(ctx context.Context, groupRef string, project types.Project) {
	projectRef, ok := in.dispatch(ctx, registry.Project, "", project.Name, func(ctx context.Context) (string, error) {
		return in.client.CreateProject(ctx, groupRef, project.Name, project.Description)
	})
	if !ok {
		in.cascadeProject(project)
		return
	}

	for _, milestone := range project.Milestones {
		in.injectMilestone(ctx, projectRef, milestone, true)
	}
	for _, issue := range project.Issues {
		in.injectIssue(ctx, projectRef, issue)
	}
	for _, member := range project.Members {
		in.injectMember(ctx, projectRef, member, true)
	}
}

func (in *injector) injectLabel(ctx context.Context, groupRef string, label types.Label) {
	if in.alreadyMapped(registry.Label, label.ID) {
		return
	}
	in.dispatch(ctx, registry.Label, label.ID, label.Name, func(ctx context.Context) (string, error) {
		return in.client.CreateLabel(ctx, groupRef, glclient.LabelParams{
			Name:        label.Name,
			Description: label.Description,
			Color:       label.Color,
		})
	})
}

func (in *injector) injectEpic(ctx context.Context, groupRef string, epic types.Epic) {
	if in.alreadyMapped(registry.Epic, epic.ID) {
		return
	}
	params := glclient.EpicParams{
		Title:        epic.Title,
		Description:  epic.Description,
		State:        epic.State,
		ParentEpicID: in.resolveOptional(registry.Epic, epic.ParentEpicID),
		LabelIDs:     in.resolveEach(registry.Label, epic.LabelIDs),
	}
	in.dispatch(ctx, registry.Epic, epic.ID, epic.Title, func(ctx context.Context) (string, error) {
		return in.client.CreateEpic(ctx, groupRef, params)
	})
}

func (in *injector) injectIteration(ctx context.Context, groupRef string, iteration types.Iteration) {
	if in.alreadyMapped(registry.Iteration, iteration.ID) {
		return
	}
	params := glclient.IterationParams{
		Title:       iteration.Title,
		Description: iteration.Description,
		StartDate:   iteration.StartDate,
		DueDate:     iteration.DueDate,
		State:       iteration.State,
	}
	in.dispatch(ctx, registry.Iteration, iteration.ID, iteration.Title, func(ctx context.Context) (string, error) {
		return in.client.CreateIteration(ctx, groupRef, params)
	})
}

func (in *injector) injectMilestone(ctx context.Context, containerRef string, milestone types.Milestone, forProject bool) {
	if in.alreadyMapped(registry.Milestone, milestone.ID) {
		return
	}
	params := glclient.MilestoneParams{
		Title:       milestone.Title,
		Description: milestone.Description,
		StartDate:   milestone.StartDate,
		DueDate:     milestone.DueDate,
		State:       milestone.State,
	}
	in.dispatch(ctx, registry.Milestone, milestone.ID, milestone.Title, func(ctx context.Context) (string, error) {
		if forProject {
			return in.client.CreateProjectMilestone(ctx, containerRef, params)
		}
		return in.client.CreateGroupMilestone(ctx, containerRef, params)
	})
}

func (in *injector) injectIssue(ctx context.Context, projectRef string, issue types.Issue) {
	if in.alreadyMapped(registry.Issue, issue.ID) {
		return
	}
	params := glclient.IssueParams{
		Title:       issue.Title,
		Description: issue.Description,
		State:       issue.State,
		EpicID:      in.resolveOptional(registry.Epic, issue.ParentEpicID),
		MilestoneID: in.resolveOptional(registry.Milestone, issue.MilestoneID),
		IterationID: in.resolveOptional(registry.Iteration, issue.IterationID),
		LabelIDs:    in.resolveEach(registry.Label, issue.LabelIDs),
		AssigneeIDs: in.resolveEach(registry.User, issue.AssigneeIDs),
		Weight:      issue.Weight,
	}
	in.dispatch(ctx, registry.Issue, issue.ID, issue.Title, func(ctx context.Context) (string, error) {
		return in.client.CreateIssue(ctx, projectRef, params)
	})
}

func (in *injector) injectMember(ctx context.Context, containerRef string, member types.Member, forProject bool) {
	userID := in.resolveOptional(registry.User, member.UserID)
	if userID == "" {
		// The unresolved-reference warning is already recorded; a member
		// cannot be created without a user id.
		return
	}
	role := member.Role
	in.dispatch(ctx, registry.Member, "", member.UserID, func(ctx context.Context) (string, error) {
		if forProject {
			return in.client.CreateProjectMember(ctx, containerRef, userID, role)
		}
		return in.client.CreateGroupMember(ctx, containerRef, userID, role)
	})
}

// dispatch runs one creation call and the bookkeeping around it: dry-run
// short-circuit, failure classification, registration of the remote id, and
// counters. It returns the remote id and whether the entity now exists.
func (in *injector) dispatch(ctx context.Context, kind registry.Kind, id, name string, create func(context.Context) (string, error)) (string, bool) {
	if in.dryRun {
		in.seq++
		remoteID := fmt.Sprintf("dry-run-%d", in.seq)
		in.registerID(kind, id, remoteID)
		in.log.Info("dry-run: would "+verb(kind)+" "+string(kind), "name", name)
		return remoteID, true
	}
	remoteID, err := create(ctx)
	if err != nil {
		msg := fmt.Sprintf("failed to %s %s '%s': %v", verb(kind), kind, name, err)
		in.report.fail(kind, msg)
		in.log.Error(msg)
		return "", false
	}
	in.registerID(kind, id, remoteID)
	in.report.created(kind)
	in.log.Info(verb(kind)+"d "+string(kind), "name", name, "remote_id", remoteID)
	return remoteID, true
}

// registerID records a remote id under an entity's symbolic id. Entities
// without a symbolic id (groups, projects, members) are created but not
// registered; nothing references them by id.
func (in *injector) registerID(kind registry.Kind, id, remoteID string) {
	if id == "" {
		return
	}
	if err := in.reg.Register(kind, id, remoteID); err != nil {
		in.report.warn(err.Error())
		in.log.Warn(err.Error())
	}
}

// alreadyMapped checks for a duplicate symbolic id before any creation call.
// The second definition is skipped; the first registration stays resolvable.
func (in *injector) alreadyMapped(kind registry.Kind, id string) bool {
	if id == "" {
		return false
	}
	remoteID, ok := in.reg.Lookup(kind, id)
	if !ok {
		return false
	}
	err := &registry.DuplicateIDError{Kind: kind, ID: id, RemoteID: remoteID}
	in.report.skip(kind, err.Error())
	in.log.Warn(err.Error())
	return true
}

// cascadeGroup reports every descendant of a group whose own creation failed
// as skipped. Nothing inside a group that does not exist can be created, so
// the whole subtree is recorded as a cascade rather than re-attempted.
func (in *injector) cascadeGroup(group types.Group) {
	for _, label := range group.Labels {
		in.cascade(registry.Label, label.Name, group.Name)
	}
	for _, epic := range group.Epics {
		in.cascade(registry.Epic, epic.Title, group.Name)
	}
	for _, iteration := range group.Iterations {
		in.cascade(registry.Iteration, iteration.Title, group.Name)
	}
	for _, milestone := range group.Milestones {
		in.cascade(registry.Milestone, milestone.Title, group.Name)
	}
	for _, member := range group.Members {
		in.cascade(registry.Member, member.UserID, group.Name)
	}
	for _, project := range group.Projects {
		in.cascade(registry.Project, project.Name, group.Name)
		in.cascadeProject(project)
	}
	for _, subgroup := range group.Subgroups {
		in.cascade(registry.Group, subgroup.Name, group.Name)
		in.cascadeGroup(subgroup)
	}
}

func (in *injector) cascadeProject(project types.Project) {
	for _, milestone := range project.Milestones {
		in.cascade(registry.Milestone, milestone.Title, project.Name)
	}
	for _, issue := range project.Issues {
		in.cascade(registry.Issue, issue.Title, project.Name)
	}
	for _, member := range project.Members {
		in.cascade(registry.Member, member.UserID, project.Name)
	}
}

func (in *injector) cascade(kind registry.Kind, name, container string) {
	msg := fmt.Sprintf("skipped %s '%s': container '%s' was not created", kind, name, container)
	in.report.skip(kind, msg)
	in.log.Warn(msg)
}

// verb returns the action word for a kind; users are resolved, everything
// else is created.
func verb(kind registry.Kind) string {
	if kind == registry.User {
		return "resolve"
	}
	return "create"
}
