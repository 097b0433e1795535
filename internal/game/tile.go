package game

import (
	"fmt"
	"math/rand"
	"strconv"
)

// Coord identifies a cell on the board, e.g. "7C" is column 7, row C.
// Columns are 1-based, rows are 0-based (row 0 = 'A').
type Coord struct {
	Col int
	Row int
}

// String returns the printable tile label, e.g. "12I".
func (c Coord) String() string {
	return strconv.Itoa(c.Col) + string(rune('A'+c.Row))
}

// ParseCoord parses a tile label like "7C" back into a Coord.
func ParseCoord(s string) (Coord, error) {
	if len(s) < 2 {
		return Coord{}, fmt.Errorf("invalid tile %q", s)
	}
	rowCh := s[len(s)-1]
	if rowCh < 'A' || rowCh > 'Z' {
		return Coord{}, fmt.Errorf("invalid tile %q: bad row", s)
	}
	col, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Coord{}, fmt.Errorf("invalid tile %q: bad column", s)
	}
	return Coord{Col: col, Row: int(rowCh - 'A')}, nil
}

// Neighbors returns the four orthogonally adjacent coordinates. Callers
// filter out-of-bounds cells via Board.IsLegalCoord.
func (c Coord) Neighbors() [4]Coord {
	return [4]Coord{
		{Col: c.Col - 1, Row: c.Row},
		{Col: c.Col + 1, Row: c.Row},
		{Col: c.Col, Row: c.Row - 1},
		{Col: c.Col, Row: c.Row + 1},
	}
}

// Bag holds the undrawn tiles for a game. Draw order is fixed at shuffle
// time so a seeded RNG reproduces a full game.
type Bag struct {
	tiles []Coord
}

// NewBag creates a shuffled bag covering the whole grid.
func NewBag(rng *rand.Rand, cols, rows int) *Bag {
	tiles := make([]Coord, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 1; col <= cols; col++ {
			tiles = append(tiles, Coord{Col: col, Row: row})
		}
	}
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})
	return &Bag{tiles: tiles}
}

// Draw removes and returns the next tile. ok is false once the bag is empty.
func (b *Bag) Draw() (Coord, bool) {
	if len(b.tiles) == 0 {
		return Coord{}, false
	}
	tile := b.tiles[0]
	b.tiles = b.tiles[1:]
	return tile, true
}

// Len returns the number of undrawn tiles.
func (b *Bag) Len() int {
	return len(b.tiles)
}
