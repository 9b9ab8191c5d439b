package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 95, c.Len())

	require.Len(t, c.ByRole(RoleWicketKeeper), 15)
	require.Len(t, c.ByRole(RoleBatter), 30)
	require.Len(t, c.ByRole(RoleAllRounder), 25)
	require.Len(t, c.ByRole(RoleBowler), 25)

	for _, p := range c.Players() {
		require.Positive(t, p.BaseValue, "player %s", p.ID)
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	data := []byte(`
players:
  - { id: a1, name: "One", role: WK, baseValue: 1.0 }
  - { id: a1, name: "Two", role: BAT, baseValue: 1.5 }
`)
	_, err := Parse(data)
	require.ErrorContains(t, err, "duplicate player id")
}

func TestParseRejectsUnknownRole(t *testing.T) {
	data := []byte(`
players:
  - { id: a1, name: "One", role: KEEPER, baseValue: 1.0 }
`)
	_, err := Parse(data)
	require.ErrorContains(t, err, "unknown role")
}

func TestParseRejectsNonPositiveBaseValue(t *testing.T) {
	data := []byte(`
players:
  - { id: a1, name: "One", role: WK, baseValue: 0 }
`)
	_, err := Parse(data)
	require.ErrorContains(t, err, "non-positive base value")
}

func TestParseRejectsEmptyCatalog(t *testing.T) {
	_, err := Parse([]byte(`players: []`))
	require.ErrorContains(t, err, "no players")
}
