package domain

import (
	"math/rand"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
)

// Quota maps each role to the number of lots the pool must carry for it.
type Quota map[catalog.Role]int

// Supported participant range for one auction.
const (
	MinTeams = 2
	MaxTeams = 6
)

// quotasByTeams keys the quota table by participant count. Counts are
// clamped into [MinTeams, MaxTeams] before lookup.
var quotasByTeams = map[int]Quota{
	2: {catalog.RoleWicketKeeper: 4, catalog.RoleBatter: 8, catalog.RoleAllRounder: 6, catalog.RoleBowler: 7},
	3: {catalog.RoleWicketKeeper: 7, catalog.RoleBatter: 12, catalog.RoleAllRounder: 10, catalog.RoleBowler: 11},
	4: {catalog.RoleWicketKeeper: 9, catalog.RoleBatter: 16, catalog.RoleAllRounder: 13, catalog.RoleBowler: 14},
	5: {catalog.RoleWicketKeeper: 11, catalog.RoleBatter: 19, catalog.RoleAllRounder: 16, catalog.RoleBowler: 18},
	6: {catalog.RoleWicketKeeper: 13, catalog.RoleBatter: 23, catalog.RoleAllRounder: 19, catalog.RoleBowler: 22},
}

// QuotaFor returns the per-role lot counts for numTeams. The count is
// clamped into the supported range first; if the table still has no row
// the 3-team quota is the documented fallback (unreachable after the
// clamp, kept so an out-of-range lookup degrades instead of corrupting).
func QuotaFor(numTeams int) Quota {
	t := numTeams
	if t < MinTeams {
		t = MinTeams
	}
	if t > MaxTeams {
		t = MaxTeams
	}
	q, ok := quotasByTeams[t]
	if !ok {
		q = quotasByTeams[3]
	}
	// Copy so callers cannot mutate the table.
	out := make(Quota, len(q))
	for role, n := range q {
		out[role] = n
	}
	return out
}

// Total sums the quota counts.
func (q Quota) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// BuildPool draws a randomized, quota-respecting lot sequence from the
// catalog without replacement: repeatedly pick, uniformly, one role
// whose quota is unmet and whose supply is non-empty, then uniformly
// one remaining player of that role. Supply exhaustion is a valid
// terminal state; the pool is then shorter than the quota total.
// Deterministic for a given rng.
func BuildPool(c *catalog.Catalog, quota Quota, rng *rand.Rand) []catalog.Player {
	available := make(map[catalog.Role][]catalog.Player, len(catalog.Roles))
	for _, role := range catalog.Roles {
		available[role] = append([]catalog.Player(nil), c.ByRole(role)...)
	}
	remaining := make(Quota, len(quota))
	for role, n := range quota {
		remaining[role] = n
	}

	pool := make([]catalog.Player, 0, quota.Total())
	for {
		eligible := eligibleRoles(remaining, available)
		if len(eligible) == 0 {
			break
		}
		role := eligible[rng.Intn(len(eligible))]
		list := available[role]
		i := rng.Intn(len(list))
		pool = append(pool, list[i])
		available[role] = append(list[:i], list[i+1:]...)
		remaining[role]--
	}
	return pool
}

func eligibleRoles(remaining Quota, available map[catalog.Role][]catalog.Player) []catalog.Role {
	var roles []catalog.Role
	for _, role := range catalog.Roles {
		if remaining[role] > 0 && len(available[role]) > 0 {
			roles = append(roles, role)
		}
	}
	return roles
}
