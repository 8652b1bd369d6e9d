package engine

import (
	"context"

	glclient "github.com/lmazure/GitLabInjector/pkg/gitlab"
	"github.com/lmazure/GitLabInjector/pkg/types"
)

// GitLabClient defines the interface for GitLab operations needed by the
// injection engine. Container references (group full paths, project paths)
// and remote ids are opaque to the engine; it only threads them between
// calls.
type GitLabClient interface {
	ResolveUser(ctx context.Context, username string) (string, error)
	CreateGroup(ctx context.Context, parentRef, name, description string) (string, error)
	CreateProject(ctx context.Context, groupRef, name, description string) (string, error)
	CreateLabel(ctx context.Context, groupRef string, p glclient.LabelParams) (string, error)
	CreateEpic(ctx context.Context, groupRef string, p glclient.EpicParams) (string, error)
	CreateIteration(ctx context.Context, groupRef string, p glclient.IterationParams) (string, error)
	CreateGroupMilestone(ctx context.Context, groupRef string, p glclient.MilestoneParams) (string, error)
	CreateProjectMilestone(ctx context.Context, projectRef string, p glclient.MilestoneParams) (string, error)
	CreateIssue(ctx context.Context, projectRef string, p glclient.IssueParams) (string, error)
	CreateGroupMember(ctx context.Context, groupRef, userID string, role types.Role) (string, error)
	CreateProjectMember(ctx context.Context, projectRef, userID string, role types.Role) (string, error)
}

// Ensure *gitlab.Client satisfies the interface at compile time.
var _ GitLabClient = (*glclient.Client)(nil)
