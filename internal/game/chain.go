package game

// ChainName is the stock identity of a hotel chain.
type ChainName string

const (
	Tower       ChainName = "Tower"
	Luxor       ChainName = "Luxor"
	American    ChainName = "American"
	Worldwide   ChainName = "Worldwide"
	Festival    ChainName = "Festival"
	Imperial    ChainName = "Imperial"
	Continental ChainName = "Continental"
)

// ChainRoster lists every chain in the fixed ruleset, cheapest tier first.
var ChainRoster = []ChainName{Tower, Luxor, American, Worldwide, Festival, Imperial, Continental}

// Tier returns the price tier for a chain: 0 for the budget chains, 2 for
// the luxury ones. Unknown names report tier 0.
func (n ChainName) Tier() int {
	switch n {
	case American, Worldwide, Festival:
		return 1
	case Imperial, Continental:
		return 2
	default:
		return 0
	}
}

// Valid reports whether n is part of the roster.
func (n ChainName) Valid() bool {
	for _, name := range ChainRoster {
		if name == n {
			return true
		}
	}
	return false
}

// Chain is a live (or merged-away) group of board tiles sharing one stock
// identity.
type Chain struct {
	Name      ChainName
	Tiles     []Coord // in placement order
	Defunct   bool
	FoundedAt int // move counter at founding, breaks defunct-ordering ties
}

// Size returns the number of member tiles.
func (c *Chain) Size() int {
	return len(c.Tiles)
}

// Active reports whether the chain currently exists on the board.
func (c *Chain) Active() bool {
	return !c.Defunct && len(c.Tiles) > 0
}
