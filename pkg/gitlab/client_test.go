package gitlab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/lmazure/GitLabInjector/pkg/types"
	gl "gitlab.com/gitlab-org/api/client-go"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "my-team", slugify("My Team"))
	assert.Equal(t, "api", slugify("API"))
	assert.Equal(t, "already-a-slug", slugify("already-a-slug"))
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "#FF0000", normalizeColor("FF0000"))
	assert.Equal(t, "#FF0000", normalizeColor("#FF0000"))
	assert.Equal(t, "", normalizeColor(""))
}

func TestAccessLevel(t *testing.T) {
	cases := map[types.Role]gl.AccessLevelValue{
		types.RoleGuest:      gl.GuestPermissions,
		types.RolePlanner:    gl.PlannerPermissions,
		types.RoleReporter:   gl.ReporterPermissions,
		types.RoleDeveloper:  gl.DeveloperPermissions,
		types.RoleMaintainer: gl.MaintainerPermissions,
		types.RoleOwner:      gl.OwnerPermissions,
	}
	for role, want := range cases {
		assert.Equal(t, want, accessLevel(role), "role %s", role)
	}
	// Unknown roles fall back to the least privileged level.
	assert.Equal(t, gl.GuestPermissions, accessLevel(types.Role("sysadmin")))
}

func TestIsoDate(t *testing.T) {
	date, err := isoDate("2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, "2026-09-01", date.String())

	date, err = isoDate("")
	require.NoError(t, err)
	assert.Nil(t, date)

	_, err = isoDate("01/09/2026")
	assert.Error(t, err)
}

func TestLabelsByID(t *testing.T) {
	c := &Client{labelNames: map[string]string{
		"11": "backend",
		"12": "frontend",
	}}
	// Order follows the input ids; unknown ids are dropped.
	assert.Equal(t, []string{"frontend", "backend"}, c.labelsByID([]string{"12", "99", "11"}))
	assert.Nil(t, c.labelsByID(nil))
}
