package game

import (
	"testing"
)

func mustCoord(t *testing.T, s string) Coord {
	t.Helper()
	c, err := ParseCoord(s)
	if err != nil {
		t.Fatalf("bad test coordinate %q: %v", s, err)
	}
	return c
}

// buildChain places tiles and registers them as an active chain.
func buildChain(b *Board, chains map[ChainName]*Chain, name ChainName, foundedAt int, tiles ...Coord) {
	ch := &Chain{Name: name, FoundedAt: foundedAt}
	for _, c := range tiles {
		b.Place(c)
		b.Assign(c, name)
		ch.Tiles = append(ch.Tiles, c)
	}
	chains[name] = ch
}

// rowTiles returns the coordinates of one row between two columns inclusive.
func rowTiles(row byte, colFrom, colTo int) []Coord {
	var tiles []Coord
	for col := colFrom; col <= colTo; col++ {
		tiles = append(tiles, Coord{Col: col, Row: int(row - 'A')})
	}
	return tiles
}

func TestBoardBounds(t *testing.T) {
	b := NewBoard(12, 9)
	for _, tt := range []struct {
		coord string
		want  bool
	}{
		{"1A", true},
		{"12I", true},
		{"13A", false},
		{"1J", false},
	} {
		if got := b.IsLegalCoord(mustCoord(t, tt.coord)); got != tt.want {
			t.Errorf("IsLegalCoord(%s) = %v, want %v", tt.coord, got, tt.want)
		}
	}
	if b.IsLegalCoord(Coord{Col: 0, Row: 0}) {
		t.Error("column 0 should be off the board")
	}
}

func TestPlaceAndAssign(t *testing.T) {
	b := NewBoard(12, 9)
	c := mustCoord(t, "5E")

	if b.IsOccupied(c) {
		t.Fatal("fresh board should be empty")
	}
	b.Place(c)
	if !b.IsOccupied(c) {
		t.Fatal("tile should be occupied after Place")
	}
	if _, ok := b.ChainAt(c); ok {
		t.Fatal("freshly placed tile should be unchained")
	}

	b.Assign(c, Tower)
	name, ok := b.ChainAt(c)
	if !ok || name != Tower {
		t.Errorf("ChainAt = %q, %v; want Tower", name, ok)
	}

	// Assigning an empty cell is a no-op.
	empty := mustCoord(t, "9H")
	b.Assign(empty, Luxor)
	if _, ok := b.ChainAt(empty); ok {
		t.Error("Assign on an empty cell must not create a tile")
	}
}

func TestChainsAdjacentToDistinct(t *testing.T) {
	b := NewBoard(12, 9)
	chains := make(map[ChainName]*Chain)
	buildChain(b, chains, Tower, 0, mustCoord(t, "4A"), mustCoord(t, "5A"))
	buildChain(b, chains, Luxor, 1, mustCoord(t, "4C"), mustCoord(t, "5C"))

	got := b.ChainsAdjacentTo(mustCoord(t, "4B"))
	if len(got) != 2 {
		t.Fatalf("expected 2 adjacent chains, got %v", got)
	}

	// A tile flanked by the same chain on two sides reports it once.
	b.Place(mustCoord(t, "6B"))
	b.Assign(mustCoord(t, "6B"), Tower)
	got = b.ChainsAdjacentTo(mustCoord(t, "5B"))
	want := map[ChainName]bool{Tower: true, Luxor: true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Errorf("expected Tower and Luxor once each, got %v", got)
	}
}

func TestUnchainedGroupFloodFill(t *testing.T) {
	b := NewBoard(12, 9)
	for _, s := range []string{"5E", "6E", "6F"} {
		b.Place(mustCoord(t, s))
	}
	// A chained tile next to the group must not be picked up.
	b.Place(mustCoord(t, "7E"))
	b.Assign(mustCoord(t, "7E"), Festival)
	// Disconnected unchained tile elsewhere.
	b.Place(mustCoord(t, "1A"))

	group := b.UnchainedGroup(mustCoord(t, "5F"))
	if len(group) != 3 {
		t.Fatalf("expected 3 connected unchained tiles, got %v", group)
	}
	seen := make(map[Coord]bool)
	for _, c := range group {
		seen[c] = true
	}
	for _, s := range []string{"5E", "6E", "6F"} {
		if !seen[mustCoord(t, s)] {
			t.Errorf("group missing %s", s)
		}
	}
}

func TestHasUnchainedNeighbor(t *testing.T) {
	b := NewBoard(12, 9)
	b.Place(mustCoord(t, "5E"))
	if !b.HasUnchainedNeighbor(mustCoord(t, "5F")) {
		t.Error("5F should see the unchained tile at 5E")
	}
	b.Assign(mustCoord(t, "5E"), Imperial)
	if b.HasUnchainedNeighbor(mustCoord(t, "5F")) {
		t.Error("chained neighbors do not count")
	}
}

func TestPlacedTiles(t *testing.T) {
	b := NewBoard(12, 9)
	b.Place(mustCoord(t, "1A"))
	b.Place(mustCoord(t, "2A"))
	b.Assign(mustCoord(t, "2A"), Tower)

	tiles := b.PlacedTiles()
	if len(tiles) != 2 {
		t.Fatalf("expected 2 placed tiles, got %d", len(tiles))
	}
	if tiles[mustCoord(t, "1A")] != "" {
		t.Error("1A should be unchained")
	}
	if tiles[mustCoord(t, "2A")] != Tower {
		t.Error("2A should belong to Tower")
	}
}
