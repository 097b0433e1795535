package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharePrice(t *testing.T) {
	tests := []struct {
		chain ChainName
		size  int
		want  int
	}{
		{Tower, 0, 0},
		{Tower, 1, 0},
		{Tower, 2, 200},
		{Tower, 3, 300},
		{Tower, 4, 400},
		{Tower, 5, 500},
		{Tower, 6, 600},
		{Tower, 10, 600},
		{Tower, 11, 700},
		{Tower, 20, 700},
		{Tower, 21, 800},
		{Tower, 30, 800},
		{Tower, 31, 900},
		{Tower, 40, 900},
		{Tower, 41, 1000},
		{Tower, 108, 1000},
		// Mid tier is shifted by 100, luxury tier by 200.
		{American, 2, 300},
		{Festival, 6, 700},
		{Worldwide, 41, 1100},
		{Imperial, 2, 400},
		{Continental, 41, 1200},
	}
	for _, tt := range tests {
		if got := SharePrice(tt.chain, tt.size); got != tt.want {
			t.Errorf("SharePrice(%s, %d) = %d, want %d", tt.chain, tt.size, got, tt.want)
		}
	}
}

func TestStockPayoutSoleHolder(t *testing.T) {
	got := StockPayout(200, map[string]int{"a": 3, "b": 0}, 100)
	require.Equal(t, map[string]int{"a": 3000}, got)
}

func TestStockPayoutMajorityMinority(t *testing.T) {
	got := StockPayout(300, map[string]int{"a": 5, "b": 3, "c": 1}, 100)
	require.Equal(t, map[string]int{"a": 3000, "b": 1500}, got)
}

func TestStockPayoutMinorityTieRoundsUp(t *testing.T) {
	// Minority bonus 1500 split two ways is 750, rounded up to 800 each.
	got := StockPayout(300, map[string]int{"a": 5, "b": 3, "c": 3}, 100)
	require.Equal(t, map[string]int{"a": 3000, "b": 800, "c": 800}, got)
}

func TestStockPayoutMajorityTieSharesBoth(t *testing.T) {
	// Tied top holders split majority+minority jointly: 4500/2 = 2250,
	// rounded up to 2300 each. The trailing holder gets nothing.
	got := StockPayout(300, map[string]int{"a": 4, "b": 4, "c": 1}, 100)
	require.Equal(t, map[string]int{"a": 2300, "b": 2300}, got)
}

func TestStockPayoutEvenSplitNoRounding(t *testing.T) {
	got := StockPayout(200, map[string]int{"a": 2, "b": 2}, 100)
	require.Equal(t, map[string]int{"a": 1500, "b": 1500}, got)
}

func TestStockPayoutNobodyHolds(t *testing.T) {
	got := StockPayout(600, map[string]int{"a": 0, "b": 0}, 100)
	require.Empty(t, got)
}

func TestDispositionValue(t *testing.T) {
	cash, shares := DispositionValue(3, 4, 400)
	assert.Equal(t, 1200, cash)
	assert.Equal(t, 2, shares)

	cash, shares = DispositionValue(0, 0, 400)
	assert.Equal(t, 0, cash)
	assert.Equal(t, 0, shares)
}

func TestCanPlaceTileSafeMergerOnly(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBoard(cfg.Cols, cfg.Rows)
	chains := make(map[ChainName]*Chain)
	buildChain(b, chains, Tower, 0, rowTiles('A', 1, 11)...)   // safe
	buildChain(b, chains, Luxor, 1, rowTiles('C', 1, 11)...)   // safe
	buildChain(b, chains, American, 2, rowTiles('E', 1, 3)...) // small

	// Bridging two safe chains is the only illegal placement.
	assert.False(t, CanPlaceTile(b, chains, mustCoord(t, "2B"), cfg))

	// Touching a single safe chain is fine.
	assert.True(t, CanPlaceTile(b, chains, mustCoord(t, "12A"), cfg))
	// Merging a safe chain with a small one is legal.
	assert.True(t, CanPlaceTile(b, chains, mustCoord(t, "2D"), cfg))
	// Open space is fine.
	assert.True(t, CanPlaceTile(b, chains, mustCoord(t, "8H"), cfg))

	// Occupied and off-board cells are never placeable.
	assert.False(t, CanPlaceTile(b, chains, mustCoord(t, "1A"), cfg))
	assert.False(t, CanPlaceTile(b, chains, Coord{Col: 13, Row: 0}, cfg))
}

func TestTilePlayabilityMirrorsCanPlaceTile(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBoard(cfg.Cols, cfg.Rows)
	chains := make(map[ChainName]*Chain)
	buildChain(b, chains, Tower, 0, rowTiles('A', 1, 11)...)
	buildChain(b, chains, Luxor, 1, rowTiles('C', 1, 11)...)

	hand := []Coord{mustCoord(t, "2B"), mustCoord(t, "5F")}
	got := TilePlayability(b, chains, hand, cfg)
	require.Len(t, got, 2)
	assert.False(t, got[mustCoord(t, "2B")])
	assert.True(t, got[mustCoord(t, "5F")])
}

func TestDetermineMergerClearSurvivor(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBoard(cfg.Cols, cfg.Rows)
	chains := make(map[ChainName]*Chain)
	buildChain(b, chains, Tower, 0, rowTiles('A', 1, 3)...)
	buildChain(b, chains, Luxor, 1, rowTiles('C', 1, 2)...)

	out := DetermineMerger(b, chains, mustCoord(t, "1B"), cfg)
	require.Equal(t, []ChainName{Tower, Luxor}, out.Involved)
	assert.Equal(t, Tower, out.Survivor)
	assert.Empty(t, out.Tied)
}

func TestDetermineMergerTie(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBoard(cfg.Cols, cfg.Rows)
	chains := make(map[ChainName]*Chain)
	buildChain(b, chains, Tower, 0, rowTiles('A', 1, 2)...)
	buildChain(b, chains, Luxor, 1, rowTiles('C', 1, 2)...)

	out := DetermineMerger(b, chains, mustCoord(t, "1B"), cfg)
	assert.Empty(t, out.Survivor)
	require.Len(t, out.Tied, 2)
	assert.Contains(t, out.Tied, Tower)
	assert.Contains(t, out.Tied, Luxor)
}

func TestDefunctTieBreakOrders(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBoard(cfg.Cols, cfg.Rows)
	chains := make(map[ChainName]*Chain)
	// Worldwide founded before Festival, same size.
	buildChain(b, chains, Worldwide, 3, rowTiles('A', 1, 2)...)
	buildChain(b, chains, Festival, 7, rowTiles('C', 1, 2)...)

	names := []ChainName{Festival, Worldwide}
	sortChains(names, chains, cfg)
	assert.Equal(t, []ChainName{Worldwide, Festival}, names, "founding order breaks the tie by default")

	cfg.DefunctOrder = TieBreakChainName
	names = []ChainName{Worldwide, Festival}
	sortChains(names, chains, cfg)
	assert.Equal(t, []ChainName{Festival, Worldwide}, names, "alphabetical tie-break")
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, 800, roundUp(750, 100))
	assert.Equal(t, 700, roundUp(700, 100))
	assert.Equal(t, 751, roundUp(751, 1))
	assert.Equal(t, 751, roundUp(751, 0))
}
