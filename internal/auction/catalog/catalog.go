package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role is the closed set of player categories.
type Role string

const (
	RoleWicketKeeper Role = "WK"
	RoleBatter       Role = "BAT"
	RoleAllRounder   Role = "AR"
	RoleBowler       Role = "BOWL"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleWicketKeeper, RoleBatter, RoleAllRounder, RoleBowler}

// Player is one immutable catalog entry.
type Player struct {
	ID        string  `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	Role      Role    `yaml:"role" json:"role"`
	BaseValue float64 `yaml:"baseValue" json:"baseValue"`
}

// Catalog is the read-only player inventory, loaded once at startup.
type Catalog struct {
	players []Player
	byRole  map[Role][]Player
}

//go:embed players.yaml
var defaultData []byte

type catalogFile struct {
	Players []Player `yaml:"players"`
}

// Load builds the catalog from the YAML file at path, or from the
// embedded default dataset when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultData
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(file.Players) == 0 {
		return nil, fmt.Errorf("catalog: no players defined")
	}

	valid := make(map[Role]bool, len(Roles))
	for _, r := range Roles {
		valid[r] = true
	}

	c := &Catalog{
		players: file.Players,
		byRole:  make(map[Role][]Player),
	}
	seen := make(map[string]bool, len(file.Players))
	for _, p := range file.Players {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog: entry with empty id or name")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog: duplicate player id %q", p.ID)
		}
		seen[p.ID] = true
		if !valid[p.Role] {
			return nil, fmt.Errorf("catalog: player %q has unknown role %q", p.ID, p.Role)
		}
		if p.BaseValue <= 0 {
			return nil, fmt.Errorf("catalog: player %q has non-positive base value", p.ID)
		}
		c.byRole[p.Role] = append(c.byRole[p.Role], p)
	}
	return c, nil
}

// Players returns every entry in file order.
func (c *Catalog) Players() []Player {
	return c.players
}

// ByRole returns the entries of one role.
func (c *Catalog) ByRole(r Role) []Player {
	return c.byRole[r]
}

// Len is the total number of entries.
func (c *Catalog) Len() int {
	return len(c.players)
}
