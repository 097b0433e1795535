package game

import "sort"

// DefunctTieBreak selects how same-size defunct chains are ordered within a
// merger's disposition queue.
type DefunctTieBreak int

const (
	// TieBreakFoundingOrder resolves ties by which chain was founded first.
	TieBreakFoundingOrder DefunctTieBreak = iota
	// TieBreakChainName resolves ties alphabetically.
	TieBreakChainName
)

// Config carries every rule knob. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Cols           int
	Rows           int
	SafeSize       int // chain size at which it can no longer be merged away
	GameEndSize    int // chain size that ends the game
	SharesPerChain int
	HandSize       int
	StartingCash   int
	BuyLimit       int // max shares bought per turn
	BonusStep      int // split bonuses round up to this denomination
	FounderShare   bool
	MinPlayers     int
	MaxPlayers     int
	DefunctOrder   DefunctTieBreak
}

// DefaultConfig returns the classic ruleset: 12x9 board, seven chains, safe
// at 11 tiles, game end at 41.
func DefaultConfig() Config {
	return Config{
		Cols:           12,
		Rows:           9,
		SafeSize:       11,
		GameEndSize:    41,
		SharesPerChain: 25,
		HandSize:       6,
		StartingCash:   6000,
		BuyLimit:       3,
		BonusStep:      100,
		FounderShare:   true,
		MinPlayers:     2,
		MaxPlayers:     6,
		DefunctOrder:   TieBreakFoundingOrder,
	}
}

// SharePrice returns the current share price for a chain of the given size.
// Price is a step function of size with fixed breakpoints, shifted up by
// 100 per price tier.
func SharePrice(name ChainName, size int) int {
	if size < 2 {
		return 0
	}
	var base int
	switch {
	case size <= 5:
		base = size * 100
	case size <= 10:
		base = 600
	case size <= 20:
		base = 700
	case size <= 30:
		base = 800
	case size <= 40:
		base = 900
	default:
		base = 1000
	}
	return base + 100*name.Tier()
}

// CanPlaceTile is the sole source of truth for tile playability: a
// placement is illegal iff it would connect two or more chains that are
// each already safe. Every other placement is legal.
func CanPlaceTile(b *Board, chains map[ChainName]*Chain, c Coord, cfg Config) bool {
	if !b.IsLegalCoord(c) || b.IsOccupied(c) {
		return false
	}
	safe := 0
	for _, name := range b.ChainsAdjacentTo(c) {
		if ch := chains[name]; ch != nil && ch.Size() >= cfg.SafeSize {
			safe++
		}
	}
	return safe < 2
}

// TilePlayability maps each tile in a hand to its CanPlaceTile result.
// Clients and the bot both consume this; neither re-derives the rule.
func TilePlayability(b *Board, chains map[ChainName]*Chain, hand []Coord, cfg Config) map[Coord]bool {
	out := make(map[Coord]bool, len(hand))
	for _, tile := range hand {
		out[tile] = CanPlaceTile(b, chains, tile, cfg)
	}
	return out
}

// MergerOutcome describes the chains a placement would connect. Survivor is
// empty when the largest chains tie and the placing player must choose from
// Tied.
type MergerOutcome struct {
	Involved []ChainName // every connected chain, largest first
	Survivor ChainName
	Tied     []ChainName
}

// DetermineMerger returns the chains that placing c would connect, with the
// designated survivor. It does not mutate the board.
func DetermineMerger(b *Board, chains map[ChainName]*Chain, c Coord, cfg Config) MergerOutcome {
	names := b.ChainsAdjacentTo(c)
	sortChains(names, chains, cfg)

	out := MergerOutcome{Involved: names}
	if len(names) < 2 {
		if len(names) == 1 {
			out.Survivor = names[0]
		}
		return out
	}

	top := chains[names[0]].Size()
	var tied []ChainName
	for _, name := range names {
		if chains[name].Size() == top {
			tied = append(tied, name)
		}
	}
	if len(tied) == 1 {
		out.Survivor = tied[0]
	} else {
		out.Tied = tied
	}
	return out
}

// sortChains orders names by descending size, breaking ties with the
// configured rule.
func sortChains(names []ChainName, chains map[ChainName]*Chain, cfg Config) {
	sort.SliceStable(names, func(i, j int) bool {
		a, b := chains[names[i]], chains[names[j]]
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		if cfg.DefunctOrder == TieBreakChainName {
			return names[i] < names[j]
		}
		return a.FoundedAt < b.FoundedAt
	})
}

// StockPayout computes the majority and minority bonuses owed for a chain
// at the given share price. The majority bonus is 10x price, the minority
// 5x. Ties among top holders split majority+minority jointly; each split
// share rounds up to the bonus step. A sole shareholder collects both
// bonuses. Holders with zero shares receive nothing.
func StockPayout(price int, holdings map[string]int, step int) map[string]int {
	majority := 10 * price
	minority := 5 * price

	type holder struct {
		id     string
		shares int
	}
	var holders []holder
	for id, n := range holdings {
		if n > 0 {
			holders = append(holders, holder{id, n})
		}
	}
	if len(holders) == 0 {
		return map[string]int{}
	}
	sort.Slice(holders, func(i, j int) bool {
		if holders[i].shares != holders[j].shares {
			return holders[i].shares > holders[j].shares
		}
		return holders[i].id < holders[j].id
	})

	payouts := make(map[string]int)
	if len(holders) == 1 {
		payouts[holders[0].id] = majority + minority
		return payouts
	}

	top := holders[0].shares
	var topTier []holder
	for _, h := range holders {
		if h.shares == top {
			topTier = append(topTier, h)
		}
	}

	if len(topTier) > 1 {
		// Tied majority holders jointly take both bonuses.
		share := roundUp((majority+minority)/len(topTier), step)
		if (majority+minority)%len(topTier) != 0 {
			share = roundUp((majority+minority)/len(topTier)+1, step)
		}
		for _, h := range topTier {
			payouts[h.id] = share
		}
		return payouts
	}

	payouts[topTier[0].id] = majority

	second := 0
	for _, h := range holders[1:] {
		if h.shares > second {
			second = h.shares
		}
	}
	var secondTier []holder
	for _, h := range holders[1:] {
		if h.shares == second {
			secondTier = append(secondTier, h)
		}
	}
	share := roundUp(minority/len(secondTier), step)
	if minority%len(secondTier) != 0 {
		share = roundUp(minority/len(secondTier)+1, step)
	}
	for _, h := range secondTier {
		payouts[h.id] += share
	}
	return payouts
}

// DispositionValue translates a sell/trade split into its cash and
// surviving-chain share yield. Trade is 2-for-1 into the survivor.
func DispositionValue(sell, trade, price int) (cash, survivorShares int) {
	return sell * price, trade / 2
}

func roundUp(v, step int) int {
	if step <= 1 {
		return v
	}
	if rem := v % step; rem != 0 {
		return v + step - rem
	}
	return v
}
