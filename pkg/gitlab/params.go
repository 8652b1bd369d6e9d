package gitlab

// Creation parameter structs passed from the injection engine to the client.
// Reference fields hold remote ids already resolved by the engine; the
// symbolic ids from the document never reach this package.

// LabelParams describes a group label to create.
type LabelParams struct {
	Name        string
	Description string
	Color       string
}

// EpicParams describes a group epic to create. ParentEpicID and LabelIDs are
// remote ids.
type EpicParams struct {
	Title        string
	Description  string
	State        string
	ParentEpicID string
	LabelIDs     []string
}

// IterationParams describes a group iteration to create. Dates are
// YYYY-MM-DD strings.
type IterationParams struct {
	Title       string
	Description string
	StartDate   string
	DueDate     string
	State       string
}

// MilestoneParams describes a group or project milestone to create.
type MilestoneParams struct {
	Title       string
	Description string
	StartDate   string
	DueDate     string
	State       string
}

// IssueParams describes a project issue to create. EpicID, MilestoneID,
// IterationID, LabelIDs and AssigneeIDs are remote ids.
type IssueParams struct {
	Title       string
	Description string
	State       string
	EpicID      string
	MilestoneID string
	IterationID string
	LabelIDs    []string
	AssigneeIDs []string
	Weight      *int
}
