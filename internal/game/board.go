package game

// cell records occupancy for one board coordinate. An occupied cell with an
// empty chain name is a lone tile not yet part of any chain.
type cell struct {
	occupied bool
	chain    ChainName
}

// Board is the grid of placed tiles and the chain each belongs to. It is
// pure data plus adjacency queries; all mutation happens through the Game,
// which keeps chain membership consistent with connectivity in the same
// transaction as each placement.
type Board struct {
	cols, rows int
	cells      map[Coord]cell
}

// NewBoard creates an empty board of the given dimensions.
func NewBoard(cols, rows int) *Board {
	return &Board{
		cols:  cols,
		rows:  rows,
		cells: make(map[Coord]cell),
	}
}

// IsLegalCoord reports whether c is on the grid.
func (b *Board) IsLegalCoord(c Coord) bool {
	return c.Col >= 1 && c.Col <= b.cols && c.Row >= 0 && c.Row < b.rows
}

// IsOccupied reports whether a tile has been placed at c.
func (b *Board) IsOccupied(c Coord) bool {
	return b.cells[c].occupied
}

// ChainAt returns the chain the tile at c belongs to, if any.
func (b *Board) ChainAt(c Coord) (ChainName, bool) {
	cl := b.cells[c]
	if !cl.occupied || cl.chain == "" {
		return "", false
	}
	return cl.chain, true
}

// Place records a tile as occupied and unchained. The caller resolves chain
// membership before the placement transaction completes.
func (b *Board) Place(c Coord) {
	b.cells[c] = cell{occupied: true}
}

// Assign sets the chain membership of an already-placed tile.
func (b *Board) Assign(c Coord, name ChainName) {
	if cl := b.cells[c]; cl.occupied {
		cl.chain = name
		b.cells[c] = cl
	}
}

// ChainsAdjacentTo returns the distinct chains touching the neighbors of c,
// in a stable order. Used to classify a placement as growth, founding or
// merger.
func (b *Board) ChainsAdjacentTo(c Coord) []ChainName {
	var names []ChainName
	seen := make(map[ChainName]bool)
	for _, n := range c.Neighbors() {
		if !b.IsLegalCoord(n) {
			continue
		}
		if name, ok := b.ChainAt(n); ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// UnchainedGroup returns every unchained occupied tile connected to c
// (through other unchained tiles), excluding c itself. These are the tiles a
// new or growing chain absorbs along with the placement.
func (b *Board) UnchainedGroup(c Coord) []Coord {
	var group []Coord
	seen := map[Coord]bool{c: true}
	frontier := []Coord{c}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, n := range cur.Neighbors() {
			if seen[n] || !b.IsLegalCoord(n) {
				continue
			}
			cl := b.cells[n]
			if !cl.occupied || cl.chain != "" {
				continue
			}
			seen[n] = true
			group = append(group, n)
			frontier = append(frontier, n)
		}
	}
	return group
}

// HasUnchainedNeighbor reports whether any neighbor of c is an occupied tile
// without chain membership.
func (b *Board) HasUnchainedNeighbor(c Coord) bool {
	for _, n := range c.Neighbors() {
		if !b.IsLegalCoord(n) {
			continue
		}
		cl := b.cells[n]
		if cl.occupied && cl.chain == "" {
			return true
		}
	}
	return false
}

// PlacedTiles returns every occupied coordinate with its chain name (empty
// for unchained tiles). Order is unspecified.
func (b *Board) PlacedTiles() map[Coord]ChainName {
	out := make(map[Coord]ChainName, len(b.cells))
	for c, cl := range b.cells {
		if cl.occupied {
			out[c] = cl.chain
		}
	}
	return out
}

// Cols and Rows expose the board dimensions.
func (b *Board) Cols() int { return b.cols }
func (b *Board) Rows() int { return b.rows }
