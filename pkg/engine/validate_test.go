package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmazure/GitLabInjector/pkg/types"
)

func validDocument() types.Document {
	weight := 3
	return types.Document{
		Users: []types.User{{ID: "u1", Username: "alice"}},
		Groups: []types.Group{{
			Name:        "Platform",
			Description: "Core platform",
			Labels:      []types.Label{{ID: "L1", Name: "backend", Color: "#FF0000"}},
			Epics:       []types.Epic{{ID: "E1", Title: "Foundation", State: "opened"}},
			Iterations:  []types.Iteration{{ID: "S1", Title: "Sprint 1", StartDate: "2026-09-01", DueDate: "2026-09-14"}},
			Milestones:  []types.Milestone{{ID: "M1", Title: "V1", State: "active"}},
			Members:     []types.Member{{UserID: "u1", Role: types.RoleMaintainer}},
			Projects: []types.Project{{
				Name:   "API",
				Issues: []types.Issue{{ID: "I1", Title: "Bootstrap", Weight: &weight}},
			}},
			Subgroups: []types.Group{{Name: "Infra"}},
		}},
	}
}

func TestValidateDocument_Valid(t *testing.T) {
	assert.Empty(t, ValidateDocument(validDocument()))
}

func TestValidateDocument_NoGroups(t *testing.T) {
	errs := ValidateDocument(types.Document{})
	require.Len(t, errs, 1)
	assert.Equal(t, "at least one group is required", errs[0])
}

func TestValidateDocument_MissingRequiredFields(t *testing.T) {
	doc := types.Document{
		Users: []types.User{{}},
		Groups: []types.Group{{
			Labels: []types.Label{{Color: "FF0000"}},
			Epics:  []types.Epic{{ID: "E1"}},
		}},
	}
	errs := ValidateDocument(doc)
	assert.Contains(t, errs, "users[0]: id is required")
	assert.Contains(t, errs, "users[0]: username is required")
	assert.Contains(t, errs, "groups[0]: name is required")
	assert.Contains(t, errs, "groups[0].labels[0]: id is required")
	assert.Contains(t, errs, "groups[0].labels[0]: name is required")
	assert.Contains(t, errs, "groups[0].epics[0]: title is required")
}

func TestValidateDocument_BadColor(t *testing.T) {
	doc := validDocument()
	doc.Groups[0].Labels[0].Color = "red"
	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `color "red" is not a 6-hex-digit RGB value`)
}

func TestValidateDocument_ColorWithAndWithoutHash(t *testing.T) {
	doc := validDocument()
	doc.Groups[0].Labels[0].Color = "a1B2c3"
	assert.Empty(t, ValidateDocument(doc))
	doc.Groups[0].Labels[0].Color = "#a1B2c3"
	assert.Empty(t, ValidateDocument(doc))
}

func TestValidateDocument_BadStates(t *testing.T) {
	doc := validDocument()
	doc.Groups[0].Epics[0].State = "done"
	doc.Groups[0].Milestones[0].State = "open"
	doc.Groups[0].Projects[0].Issues[0].State = "wip"
	errs := ValidateDocument(doc)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], `state "done" must be opened or closed`)
	assert.Contains(t, errs[1], `state "open" must be active or closed`)
	assert.Contains(t, errs[2], `state "wip" must be opened or closed`)
}

func TestValidateDocument_BadDate(t *testing.T) {
	doc := validDocument()
	doc.Groups[0].Iterations[0].StartDate = "01/09/2026"
	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `start_date "01/09/2026" is not a YYYY-MM-DD date`)
}

func TestValidateDocument_BadRole(t *testing.T) {
	doc := validDocument()
	doc.Groups[0].Members[0].Role = "admin"
	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `role "admin" is not a valid role`)
}

func TestValidateDocument_NegativeWeight(t *testing.T) {
	doc := validDocument()
	weight := -1
	doc.Groups[0].Projects[0].Issues[0].Weight = &weight
	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "weight -1 must not be negative")
}

func TestValidateDocument_NestingDepthLimit(t *testing.T) {
	group := types.Group{Name: "leaf"}
	for i := 0; i <= maxNestingDepth; i++ {
		group = types.Group{Name: fmt.Sprintf("level-%d", i), Subgroups: []types.Group{group}}
	}
	doc := types.Document{Groups: []types.Group{group}}
	errs := ValidateDocument(doc)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "nested deeper than")
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Problems: []string{"a", "b"}}
	assert.Equal(t, "invalid structure definition: 2 problem(s)", err.Error())
}
