package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/stretchr/testify/require"
)

func TestQuotaForTable(t *testing.T) {
	tests := []struct {
		numTeams int
		want     Quota
		total    int
	}{
		{2, Quota{catalog.RoleWicketKeeper: 4, catalog.RoleBatter: 8, catalog.RoleAllRounder: 6, catalog.RoleBowler: 7}, 25},
		{3, Quota{catalog.RoleWicketKeeper: 7, catalog.RoleBatter: 12, catalog.RoleAllRounder: 10, catalog.RoleBowler: 11}, 40},
		{4, Quota{catalog.RoleWicketKeeper: 9, catalog.RoleBatter: 16, catalog.RoleAllRounder: 13, catalog.RoleBowler: 14}, 52},
		{5, Quota{catalog.RoleWicketKeeper: 11, catalog.RoleBatter: 19, catalog.RoleAllRounder: 16, catalog.RoleBowler: 18}, 64},
		{6, Quota{catalog.RoleWicketKeeper: 13, catalog.RoleBatter: 23, catalog.RoleAllRounder: 19, catalog.RoleBowler: 22}, 77},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_teams", tt.numTeams), func(t *testing.T) {
			got := QuotaFor(tt.numTeams)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.total, got.Total())
		})
	}
}

func TestQuotaForClampsOutOfRangeCounts(t *testing.T) {
	require.Equal(t, QuotaFor(MinTeams), QuotaFor(0))
	require.Equal(t, QuotaFor(MinTeams), QuotaFor(-3))
	require.Equal(t, QuotaFor(MaxTeams), QuotaFor(42))
}

func TestQuotaForReturnsACopy(t *testing.T) {
	q := QuotaFor(2)
	q[catalog.RoleWicketKeeper] = 99
	require.Equal(t, 4, QuotaFor(2)[catalog.RoleWicketKeeper])
}

func TestBuildPoolDrawsWithoutReplacement(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)

	quota := QuotaFor(6)
	pool := BuildPool(c, quota, rand.New(rand.NewSource(7)))

	require.Len(t, pool, quota.Total())

	seen := make(map[string]bool, len(pool))
	perRole := make(map[catalog.Role]int)
	for _, p := range pool {
		require.False(t, seen[p.ID], "player %s drawn twice", p.ID)
		seen[p.ID] = true
		perRole[p.Role]++
	}
	for _, role := range catalog.Roles {
		require.Equal(t, quota[role], perRole[role], "role %s", role)
	}
}

func TestBuildPoolStopsAtSupplyExhaustion(t *testing.T) {
	c, err := catalog.Parse([]byte(`
players:
  - { id: wk1, name: "Keeper One", role: WK, baseValue: 1.0 }
  - { id: wk2, name: "Keeper Two", role: WK, baseValue: 1.0 }
  - { id: bat1, name: "Batter One", role: BAT, baseValue: 1.0 }
`))
	require.NoError(t, err)

	quota := Quota{catalog.RoleWicketKeeper: 4, catalog.RoleBatter: 2}
	pool := BuildPool(c, quota, rand.New(rand.NewSource(1)))

	// min(quota, supply) per role: 2 WK + 1 BAT.
	require.Len(t, pool, 3)
	perRole := make(map[catalog.Role]int)
	for _, p := range pool {
		perRole[p.Role]++
	}
	require.Equal(t, 2, perRole[catalog.RoleWicketKeeper])
	require.Equal(t, 1, perRole[catalog.RoleBatter])
}

func TestBuildPoolDeterministicForSeed(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)

	quota := QuotaFor(3)
	a := BuildPool(c, quota, rand.New(rand.NewSource(99)))
	b := BuildPool(c, quota, rand.New(rand.NewSource(99)))
	require.Equal(t, a, b)
}
