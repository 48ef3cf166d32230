package domain

import "sort"

// GameDefinition describes one tournament game: how many players a roster
// must have and what the entry fee is per tier. Amounts are in minor
// currency units.
type GameDefinition struct {
	ID          string
	Name        string
	PlayerCount int
	Fees        map[FeeTier]int64
}

// Catalog is the immutable game catalog, loaded once at process start.
// Read-only after construction, so safe for concurrent use.
type Catalog struct {
	games map[string]GameDefinition
}

// NewCatalog builds a catalog from the given definitions. Every definition
// must have a positive player count and a positive fee for both tiers.
func NewCatalog(defs ...GameDefinition) (*Catalog, error) {
	games := make(map[string]GameDefinition, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return nil, &CatalogError{GameID: def.ID, Reason: "missing game id"}
		}
		if def.PlayerCount < 1 {
			return nil, &CatalogError{GameID: def.ID, Reason: "player count must be at least 1"}
		}
		for _, tier := range []FeeTier{TierHome, TierVisitor} {
			if def.Fees[tier] <= 0 {
				return nil, &CatalogError{GameID: def.ID, Reason: "fee for tier " + string(tier) + " must be positive"}
			}
		}
		if _, exists := games[def.ID]; exists {
			return nil, &CatalogError{GameID: def.ID, Reason: "duplicate game id"}
		}
		games[def.ID] = def
	}
	return &Catalog{games: games}, nil
}

// MustNewCatalog is NewCatalog for static definitions known to be valid.
func MustNewCatalog(defs ...GameDefinition) *Catalog {
	c, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the definition for a game id.
func (c *Catalog) Lookup(gameID string) (GameDefinition, error) {
	def, ok := c.games[gameID]
	if !ok {
		return GameDefinition{}, &UnknownGameError{GameID: gameID}
	}
	return def, nil
}

// AmountFor is the fee policy: the entry fee for (game, tier). Pure over the
// catalog. Callers snapshot the result onto the aggregate at creation time.
func (c *Catalog) AmountFor(gameID string, tier FeeTier) (int64, error) {
	def, err := c.Lookup(gameID)
	if err != nil {
		return 0, err
	}
	return def.Fees[tier], nil
}

// Games returns all definitions ordered by id, for listing endpoints.
func (c *Catalog) Games() []GameDefinition {
	out := make([]GameDefinition, 0, len(c.games))
	for _, def := range c.games {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func stdFees(home, visitor int64) map[FeeTier]int64 {
	return map[FeeTier]int64{TierHome: home, TierVisitor: visitor}
}

// DefaultCatalog returns the current tournament's game lineup.
// Adding a game is a catalog entry here, not new code.
func DefaultCatalog() *Catalog {
	return MustNewCatalog(
		GameDefinition{ID: "bgmi", Name: "BGMI", PlayerCount: 4, Fees: stdFees(100, 250)},
		GameDefinition{ID: "valorant", Name: "Valorant", PlayerCount: 5, Fees: stdFees(100, 250)},
		GameDefinition{ID: "freefire", Name: "Free Fire", PlayerCount: 4, Fees: stdFees(100, 250)},
		GameDefinition{ID: "codm", Name: "COD Mobile", PlayerCount: 5, Fees: stdFees(100, 250)},
		GameDefinition{ID: "ml", Name: "Mobile Legends", PlayerCount: 5, Fees: stdFees(100, 250)},
		GameDefinition{ID: "csgo", Name: "CS:GO", PlayerCount: 5, Fees: stdFees(100, 250)},
		GameDefinition{ID: "fifa", Name: "FIFA", PlayerCount: 1, Fees: stdFees(100, 250)},
		GameDefinition{ID: "bulletchoe", Name: "Bullet Echo", PlayerCount: 3, Fees: stdFees(100, 250)},
		GameDefinition{ID: "clashroyale", Name: "Clash Royale", PlayerCount: 1, Fees: stdFees(100, 250)},
		GameDefinition{ID: "nfs", Name: "NFS", PlayerCount: 1, Fees: stdFees(100, 250)},
	)
}
