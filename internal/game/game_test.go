package game

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, ids ...string) *Game {
	t.Helper()
	return newTestGameCfg(t, DefaultConfig(), ids...)
}

func newTestGameCfg(t *testing.T, cfg Config, ids ...string) *Game {
	t.Helper()
	seats := make([]Seat, len(ids))
	for i, id := range ids {
		seats[i] = Seat{ID: id, Name: id}
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	g, err := NewGame(cfg, logger, rand.New(rand.NewSource(1)), seats)
	require.NoError(t, err)
	return g
}

func setHand(t *testing.T, g *Game, id string, tiles ...string) {
	t.Helper()
	p, ok := g.Player(id)
	require.True(t, ok)
	p.Hand = nil
	for _, s := range tiles {
		p.AddTile(mustCoord(t, s))
	}
}

func TestNewGameValidation(t *testing.T) {
	cfg := DefaultConfig()
	logger := log.NewWithOptions(io.Discard, log.Options{})

	_, err := NewGame(cfg, logger, rand.New(rand.NewSource(1)), []Seat{{ID: "a"}})
	assert.Error(t, err, "one player is below the minimum")

	_, err = NewGame(cfg, logger, rand.New(rand.NewSource(1)), []Seat{{ID: "a"}, {ID: "a"}})
	assert.Error(t, err, "duplicate seat IDs must be rejected")
}

func TestNewGameDealsHands(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	for _, id := range []string{"a", "b", "c"} {
		p, ok := g.Player(id)
		require.True(t, ok)
		assert.Len(t, p.Hand, 6)
		assert.Equal(t, 6000, p.Cash)
	}
	assert.Equal(t, 108-18, g.bag.Len())
	assert.Equal(t, PhaseAwaitingPlacement, g.Phase())
	assert.Equal(t, "a", g.PendingActor())
}

func TestPlaceTileFoundsChain(t *testing.T) {
	g := newTestGame(t, "a", "b")
	g.board.Place(mustCoord(t, "5E"))
	setHand(t, g, "a", "5F")

	require.NoError(t, g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "5F")}))
	require.Equal(t, PhaseChainFounding, g.Phase())
	assert.Len(t, g.PublicState().AvailableChains, 7)

	err := g.Apply("b", Action{Type: ActionFoundChain, Chain: Worldwide})
	assert.ErrorIs(t, err, ErrOutOfTurn)

	err = g.Apply("a", Action{Type: ActionFoundChain, Chain: "Bogus"})
	assert.ErrorIs(t, err, ErrIllegalPlacement)

	require.NoError(t, g.Apply("a", Action{Type: ActionFoundChain, Chain: Worldwide}))
	assert.Equal(t, PhaseBuyStock, g.Phase())

	ch := g.Chain(Worldwide)
	require.NotNil(t, ch)
	assert.True(t, ch.Active())
	assert.Equal(t, 2, ch.Size())

	name, ok := g.board.ChainAt(mustCoord(t, "5E"))
	require.True(t, ok)
	assert.Equal(t, Worldwide, name)

	// Founder's share comes out of the bank.
	p, _ := g.Player("a")
	assert.Equal(t, 1, p.Holding(Worldwide))
	assert.Equal(t, 24, g.SharesRemaining(Worldwide))
}

func TestPlaceTileGrowsChain(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, mustCoord(t, "1A"), mustCoord(t, "2A"))
	g.board.Place(mustCoord(t, "4A")) // lone tile the growth absorbs
	setHand(t, g, "a", "3A")

	require.NoError(t, g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "3A")}))
	assert.Equal(t, PhaseBuyStock, g.Phase())
	assert.Equal(t, 4, g.Chain(Tower).Size())

	name, ok := g.board.ChainAt(mustCoord(t, "4A"))
	require.True(t, ok)
	assert.Equal(t, Tower, name)
}

func TestFoundingDeferredWhenNoNamesFree(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 2)...)
	buildChain(g.board, g.chains, Luxor, 1, rowTiles('A', 4, 5)...)
	buildChain(g.board, g.chains, American, 2, rowTiles('C', 1, 2)...)
	buildChain(g.board, g.chains, Worldwide, 3, rowTiles('C', 4, 5)...)
	buildChain(g.board, g.chains, Festival, 4, rowTiles('E', 1, 2)...)
	buildChain(g.board, g.chains, Imperial, 5, rowTiles('E', 4, 5)...)
	buildChain(g.board, g.chains, Continental, 6, rowTiles('G', 1, 2)...)

	g.board.Place(mustCoord(t, "10I"))
	setHand(t, g, "a", "11I")

	require.NoError(t, g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "11I")}))

	// The tiles stay unchained until a chain name frees up.
	assert.Equal(t, PhaseBuyStock, g.Phase())
	_, chained := g.board.ChainAt(mustCoord(t, "11I"))
	assert.False(t, chained)
	_, chained = g.board.ChainAt(mustCoord(t, "10I"))
	assert.False(t, chained)
}

func TestMergerPaysBonusesAndRunsDisposition(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 6)...)
	buildChain(g.board, g.chains, Luxor, 1, rowTiles('C', 1, 3)...)

	pa, _ := g.Player("a")
	pb, _ := g.Player("b")
	pa.Stocks[Luxor] = 3
	pb.Stocks[Luxor] = 2
	g.sharesLeft[Luxor] = 20
	setHand(t, g, "a", "2B")

	require.NoError(t, g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "2B")}))

	// Tower (6) survives, Luxor (3) is defunct at the frozen price of 300.
	require.Equal(t, PhaseStockDisposition, g.Phase())
	assert.True(t, g.Chain(Luxor).Defunct)
	assert.Equal(t, 10, g.Chain(Tower).Size())
	name, ok := g.board.ChainAt(mustCoord(t, "2C"))
	require.True(t, ok)
	assert.Equal(t, Tower, name)

	// Majority and minority bonuses paid up front.
	assert.Equal(t, 9000, pa.Cash)
	assert.Equal(t, 7500, pb.Cash)

	state := g.PublicState()
	require.NotNil(t, state.Disposition)
	assert.Equal(t, "stock_disposition", state.Phase)
	assert.Equal(t, "Luxor", state.Disposition.Chain)
	assert.Equal(t, 300, state.Disposition.Price)
	assert.Equal(t, "a", state.Disposition.Deciding)
	assert.Equal(t, "Tower", state.Disposition.Survivor)
	assert.Equal(t, "a", g.PendingActor())

	// Only the queued decider may act, and the split must cover the holding.
	err := g.Apply("b", Action{Type: ActionDisposition, Chain: Luxor, Sell: 2})
	assert.ErrorIs(t, err, ErrOutOfTurn)
	err = g.Apply("a", Action{Type: ActionDisposition, Chain: Luxor, Sell: 1})
	assert.ErrorIs(t, err, ErrInsufficientShares)
	err = g.Apply("a", Action{Type: ActionDisposition, Chain: Luxor, Sell: 0, Trade: 3})
	assert.ErrorIs(t, err, ErrInsufficientShares, "odd trades are not 2-for-1")

	require.NoError(t, g.Apply("a", Action{Type: ActionDisposition, Chain: Luxor, Sell: 1, Trade: 2}))
	assert.Equal(t, 9300, pa.Cash)
	assert.Equal(t, 0, pa.Holding(Luxor))
	assert.Equal(t, 1, pa.Holding(Tower))
	assert.Equal(t, 24, g.SharesRemaining(Tower))
	assert.Equal(t, 23, g.SharesRemaining(Luxor))

	assert.Equal(t, "b", g.PendingActor())
	require.NoError(t, g.Apply("b", Action{Type: ActionDisposition, Chain: Luxor, Sell: 2}))
	assert.Equal(t, 8100, pb.Cash)
	assert.Equal(t, 25, g.SharesRemaining(Luxor))

	// Disposition done: back to the placing player's buy step.
	assert.Equal(t, PhaseBuyStock, g.Phase())
	assert.Nil(t, g.Merger())
	assert.Equal(t, "a", g.PendingActor())
}

func TestMergerTieRequiresSurvivorChoice(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 3)...)
	buildChain(g.board, g.chains, Luxor, 1, rowTiles('C', 1, 3)...)
	setHand(t, g, "a", "2B")

	require.NoError(t, g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "2B")}))
	require.Equal(t, PhaseMergerResolution, g.Phase())
	assert.ElementsMatch(t, []string{"Tower", "Luxor"}, g.PublicState().SurvivorChoice)

	err := g.Apply("b", Action{Type: ActionChooseSurvivor, Chain: Luxor})
	assert.ErrorIs(t, err, ErrOutOfTurn)
	err = g.Apply("a", Action{Type: ActionChooseSurvivor, Chain: American})
	assert.ErrorIs(t, err, ErrIllegalPlacement)

	require.NoError(t, g.Apply("a", Action{Type: ActionChooseSurvivor, Chain: Luxor}))

	// Nobody held Tower stock, so the merger completes immediately.
	assert.Equal(t, PhaseBuyStock, g.Phase())
	assert.Equal(t, 7, g.Chain(Luxor).Size())
	assert.True(t, g.Chain(Tower).Defunct)
}

func TestBuyStockLimitsAndFunds(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 4)...) // price 400
	g.phase = PhaseBuyStock
	pa, _ := g.Player("a")

	require.NoError(t, g.Apply("a", Action{Type: ActionBuyStock, Chain: Tower, Count: 2}))
	assert.Equal(t, 5200, pa.Cash)
	assert.Equal(t, 2, pa.Holding(Tower))
	assert.Equal(t, 23, g.SharesRemaining(Tower))

	err := g.Apply("a", Action{Type: ActionBuyStock, Chain: Tower, Count: 2})
	assert.ErrorIs(t, err, ErrInsufficientShares, "three shares per turn")
	assert.Equal(t, 5200, pa.Cash, "rejected buy must not charge")

	err = g.Apply("a", Action{Type: ActionBuyStock, Chain: Luxor, Count: 1})
	assert.ErrorIs(t, err, ErrIllegalPlacement, "Luxor is not on the board")

	require.NoError(t, g.Apply("a", Action{Type: ActionBuyStock, Chain: Tower, Count: 1}))
	assert.Equal(t, 4800, pa.Cash)

	require.NoError(t, g.Apply("a", Action{Type: ActionEndTurn}))
	assert.Equal(t, "b", g.CurrentPlayer().ID)
	assert.Equal(t, PhaseAwaitingPlacement, g.Phase())
	assert.Len(t, pa.Hand, 6, "hand refilled at end of turn")

	// Next turn the limit resets for the new player.
	g.phase = PhaseBuyStock
	pb, _ := g.Player("b")
	pb.Cash = 100
	err = g.Apply("b", Action{Type: ActionBuyStock, Chain: Tower, Count: 1})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestEndTurnRequiresNoPlayableTiles(t *testing.T) {
	g := newTestGame(t, "a", "b")
	err := g.Apply("a", Action{Type: ActionEndTurn})
	assert.ErrorIs(t, err, ErrInvalidPhase, "cannot pass while holding playable tiles")
}

func TestUnplayableHandSweptAtTurnStart(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 11)...)
	buildChain(g.board, g.chains, Luxor, 1, rowTiles('C', 1, 11)...)
	buildChain(g.board, g.chains, American, 2, rowTiles('I', 1, 2)...)

	// Every tile in b's hand bridges the two safe chains.
	setHand(t, g, "b", "2B", "3B", "4B", "5B", "6B", "7B")
	fresh := []Coord{
		mustCoord(t, "1E"), mustCoord(t, "2E"), mustCoord(t, "3E"),
		mustCoord(t, "4E"), mustCoord(t, "5E"), mustCoord(t, "6E"),
	}
	g.bag = &Bag{tiles: fresh}

	g.phase = PhaseBuyStock
	require.NoError(t, g.Apply("a", Action{Type: ActionEndTurn}))

	require.Equal(t, "b", g.CurrentPlayer().ID)
	assert.Equal(t, PhaseAwaitingPlacement, g.Phase())

	pb, _ := g.Player("b")
	assert.ElementsMatch(t, fresh, pb.Hand, "dead hand replaced from the bag")
	assert.Len(t, g.deadTiles, 6, "discarded tiles never return")
	assert.Equal(t, 0, g.bag.Len())

	playable := false
	for _, ok := range TilePlayability(g.board, g.chains, pb.Hand, g.cfg) {
		if ok {
			playable = true
		}
	}
	assert.True(t, playable, "replacement hand must be playable")
}

func TestGameOverPaysFinalBonusesAndRanks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GameEndSize = 5
	g := newTestGameCfg(t, cfg, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 5)...) // price 500
	pa, _ := g.Player("a")
	pb, _ := g.Player("b")
	pa.Stocks[Tower] = 2
	pb.Stocks[Tower] = 1
	g.sharesLeft[Tower] = 22

	g.phase = PhaseBuyStock
	require.NoError(t, g.Apply("a", Action{Type: ActionEndTurn}))

	require.Equal(t, PhaseGameOver, g.Phase())
	assert.Equal(t, "", g.PendingActor())

	// Bonuses (5000/2500) plus liquidation at 500 per share.
	assert.Equal(t, 12000, pa.Cash)
	assert.Equal(t, 9000, pb.Cash)
	assert.Equal(t, 25, g.SharesRemaining(Tower))

	standings := g.Standings()
	require.Len(t, standings, 2)
	assert.Equal(t, Standing{Rank: 1, PlayerID: "a", Name: "a", Cash: 12000}, standings[0])
	assert.Equal(t, Standing{Rank: 2, PlayerID: "b", Name: "b", Cash: 9000}, standings[1])

	err := g.Apply("a", Action{Type: ActionEndTurn})
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestAllSafeContinuesWhilePlacementsRemain(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 11)...) // safe, below end size
	setHand(t, g, "a", "5E")
	setHand(t, g, "b", "6E")

	g.phase = PhaseBuyStock
	require.NoError(t, g.Apply("a", Action{Type: ActionEndTurn}))

	assert.Equal(t, PhaseAwaitingPlacement, g.Phase(), "playable tiles remain, the game goes on")
	assert.Equal(t, "b", g.CurrentPlayer().ID)
}

func TestAllSafeEndsWhenPlacementsExhausted(t *testing.T) {
	g := newTestGame(t, "a", "b")
	buildChain(g.board, g.chains, Tower, 0, rowTiles('A', 1, 11)...)
	buildChain(g.board, g.chains, Luxor, 1, rowTiles('C', 1, 11)...)
	pa, _ := g.Player("a")
	pa.Stocks[Tower] = 2
	g.sharesLeft[Tower] = 23

	// Every remaining tile sits between the two safe chains, so once the
	// bag's last tile is drawn there is no legal placement left anywhere.
	setHand(t, g, "a", "1B", "2B")
	setHand(t, g, "b", "3B", "4B")
	g.bag = &Bag{tiles: []Coord{mustCoord(t, "5B")}}

	g.phase = PhaseBuyStock
	require.NoError(t, g.Apply("a", Action{Type: ActionEndTurn}))

	require.Equal(t, PhaseGameOver, g.Phase())
	// Sole holder takes both Tower bonuses plus liquidation at 700.
	assert.Equal(t, 6000+7000+3500+2*700, pa.Cash)
	require.Len(t, g.Standings(), 2)
}

func TestApplyRejectsBadActors(t *testing.T) {
	g := newTestGame(t, "a", "b")
	setHand(t, g, "a", "1A")

	err := g.Apply("b", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "1A")})
	assert.ErrorIs(t, err, ErrOutOfTurn)

	err = g.Apply("nobody", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "1A")})
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	err = g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "5E")})
	assert.ErrorIs(t, err, ErrIllegalPlacement, "tile not in hand")

	err = g.Apply("a", Action{Type: ActionBuyStock, Chain: Tower, Count: 1})
	assert.ErrorIs(t, err, ErrInvalidPhase)

	err = g.Apply("a", Action{Type: "shrug"})
	assert.ErrorIs(t, err, ErrInvalidPhase)

	assert.Equal(t, 0, g.MoveCount(), "rejected actions must not advance the move counter")
}

type recordingSubscriber struct {
	events []GameEvent
}

func (r *recordingSubscriber) OnEvent(e GameEvent) { r.events = append(r.events, e) }

func TestEventsPublishedOnApply(t *testing.T) {
	g := newTestGame(t, "a", "b")
	sub := &recordingSubscriber{}
	g.Events().Subscribe(sub)

	setHand(t, g, "a", "5E")
	require.NoError(t, g.Apply("a", Action{Type: ActionPlaceTile, Tile: mustCoord(t, "5E")}))

	require.Len(t, sub.events, 1)
	ev, ok := sub.events[0].(StateChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "a", ev.Actor)
	assert.Equal(t, ActionPlaceTile, ev.Action)
	assert.Equal(t, 1, ev.Move)
}

func TestPlayerViewPrivacy(t *testing.T) {
	g := newTestGame(t, "a", "b")

	view, ok := g.PlayerView("a")
	require.True(t, ok)
	assert.Equal(t, "a", view.PlayerID)
	assert.Len(t, view.Hand, 6)
	assert.Len(t, view.Playability, 6)
	assert.True(t, view.Pending)
	assert.Equal(t, 3, view.BuyLeft)
	assert.Empty(t, view.Stocks)

	other, ok := g.PlayerView("b")
	require.True(t, ok)
	assert.False(t, other.Pending)

	_, ok = g.PlayerView("nobody")
	assert.False(t, ok)
}
