package game

import "fmt"

// Player holds per-seat mutable state. All mutation is routed through the
// Game; Player enforces only its own local invariants (cash never negative,
// stock counts never negative).
type Player struct {
	ID     string // connection identity
	Name   string
	Bot    bool
	Cash   int
	Stocks map[ChainName]int
	Hand   []Coord
}

// NewPlayer seats a player with starting cash and an empty hand.
func NewPlayer(id, name string, cash int, bot bool) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Bot:    bot,
		Cash:   cash,
		Stocks: make(map[ChainName]int),
	}
}

// AddCash credits the player.
func (p *Player) AddCash(amount int) {
	p.Cash += amount
}

// RemoveCash debits the player, failing if the balance would go negative.
func (p *Player) RemoveCash(amount int) error {
	if amount > p.Cash {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, p.Cash)
	}
	p.Cash -= amount
	return nil
}

// AdjustStock changes the player's holding in a chain by delta, failing if
// the result would be negative.
func (p *Player) AdjustStock(name ChainName, delta int) error {
	if p.Stocks[name]+delta < 0 {
		return fmt.Errorf("%w: %s holding %d, delta %d", ErrInsufficientShares, name, p.Stocks[name], delta)
	}
	p.Stocks[name] += delta
	return nil
}

// Holding returns the share count for a chain.
func (p *Player) Holding(name ChainName) int {
	return p.Stocks[name]
}

// AddTile puts a tile into the player's hand. The hand size invariant is
// enforced by the Game, not here.
func (p *Player) AddTile(c Coord) {
	p.Hand = append(p.Hand, c)
}

// RemoveTile takes a tile out of the hand; ok is false if absent.
func (p *Player) RemoveTile(c Coord) bool {
	for i, t := range p.Hand {
		if t == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HasTile reports whether the tile is in hand.
func (p *Player) HasTile(c Coord) bool {
	for _, t := range p.Hand {
		if t == c {
			return true
		}
	}
	return false
}
