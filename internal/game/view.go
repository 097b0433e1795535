package game

import "sort"

// The snapshot types below are what leaves the Game: plain data, no
// references into live state. The session layer serializes them as-is.

// TileState is one placed tile and its chain membership ("" = unchained).
type TileState struct {
	Tile  string `json:"tile"`
	Chain string `json:"chain,omitempty"`
}

// ChainState summarizes a chain for clients.
type ChainState struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Price      int    `json:"price"`
	Safe       bool   `json:"safe"`
	Active     bool   `json:"active"`
	SharesLeft int    `json:"sharesLeft"`
}

// SeatSummary is the public information about a seat.
type SeatSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot"`
}

// DispositionView names exactly which chain is being resolved and whose
// decision is pending, so clients never see a generic merger label.
type DispositionView struct {
	Chain        string `json:"chain"`
	Price        int    `json:"price"`
	Deciding     string `json:"deciding"`
	Survivor     string `json:"survivor"`
	SurvivorLeft int    `json:"survivorSharesLeft"`
}

// Standing is one row of the final ranking.
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Cash     int    `json:"cash"`
}

// PublicState is the broadcast snapshot every connection receives.
type PublicState struct {
	Phase           string           `json:"phase"`
	Tiles           []TileState      `json:"tiles"`
	Chains          []ChainState     `json:"chains"`
	Players         []SeatSummary    `json:"players"`
	CurrentPlayer   string           `json:"currentPlayer"`
	Moves           int              `json:"moves"`
	BagCount        int              `json:"bagCount"`
	Disposition     *DispositionView `json:"disposition,omitempty"`
	SurvivorChoice  []string         `json:"survivorChoice,omitempty"`
	AvailableChains []string         `json:"availableChains,omitempty"`
	Standings       []Standing       `json:"standings,omitempty"`
}

// PlayerView is the per-player private snapshot: the public state plus this
// player's hand, playability map, cash and holdings.
type PlayerView struct {
	Public      PublicState     `json:"public"`
	PlayerID    string          `json:"playerId"`
	Hand        []string        `json:"hand"`
	Playability map[string]bool `json:"playability"`
	Cash        int             `json:"cash"`
	Stocks      map[string]int  `json:"stocks"`
	Pending     bool            `json:"pending"`
	BuyLeft     int             `json:"buyLeft"`
}

// PublicState builds the public snapshot for the current state.
func (g *Game) PublicState() PublicState {
	state := PublicState{
		Phase:         g.phase.String(),
		CurrentPlayer: g.CurrentPlayer().ID,
		Moves:         g.moves,
		BagCount:      g.bag.Len(),
		Standings:     g.standings,
	}

	for c, chain := range g.board.PlacedTiles() {
		state.Tiles = append(state.Tiles, TileState{Tile: c.String(), Chain: string(chain)})
	}
	sort.Slice(state.Tiles, func(i, j int) bool { return state.Tiles[i].Tile < state.Tiles[j].Tile })

	for _, name := range ChainRoster {
		cs := ChainState{Name: string(name), SharesLeft: g.sharesLeft[name]}
		if ch := g.chains[name]; ch != nil && ch.Active() {
			cs.Size = ch.Size()
			cs.Price = SharePrice(name, ch.Size())
			cs.Safe = ch.Size() >= g.cfg.SafeSize
			cs.Active = true
		}
		state.Chains = append(state.Chains, cs)
	}

	for _, p := range g.players {
		state.Players = append(state.Players, SeatSummary{ID: p.ID, Name: p.Name, Bot: p.Bot})
	}

	switch g.phase {
	case PhaseStockDisposition:
		cur, _ := g.merger.Current()
		deciding, _ := g.merger.Decider()
		state.Disposition = &DispositionView{
			Chain:        string(cur.Name),
			Price:        cur.Price,
			Deciding:     deciding,
			Survivor:     string(g.merger.Survivor),
			SurvivorLeft: g.sharesLeft[g.merger.Survivor],
		}
	case PhaseMergerResolution:
		for _, name := range g.merger.Tied {
			state.SurvivorChoice = append(state.SurvivorChoice, string(name))
		}
	case PhaseChainFounding:
		for _, name := range g.availableChains() {
			state.AvailableChains = append(state.AvailableChains, string(name))
		}
	}
	return state
}

// PlayerView builds the private snapshot for one seat.
func (g *Game) PlayerView(playerID string) (PlayerView, bool) {
	p, ok := g.byID[playerID]
	if !ok {
		return PlayerView{}, false
	}

	view := PlayerView{
		Public:      g.PublicState(),
		PlayerID:    playerID,
		Hand:        make([]string, 0, len(p.Hand)),
		Playability: make(map[string]bool, len(p.Hand)),
		Cash:        p.Cash,
		Stocks:      make(map[string]int),
		Pending:     g.PendingActor() == playerID,
		BuyLeft:     g.cfg.BuyLimit - g.bought,
	}
	for tile, playable := range TilePlayability(g.board, g.chains, p.Hand, g.cfg) {
		view.Playability[tile.String()] = playable
	}
	for _, tile := range p.Hand {
		view.Hand = append(view.Hand, tile.String())
	}
	sort.Strings(view.Hand)
	for name, n := range p.Stocks {
		if n > 0 {
			view.Stocks[string(name)] = n
		}
	}
	return view, true
}

// rankPlayers orders players by cash, richest first.
func rankPlayers(players []*Player) []Standing {
	standings := make([]Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, Standing{PlayerID: p.ID, Name: p.Name, Cash: p.Cash})
	}
	sort.SliceStable(standings, func(i, j int) bool { return standings[i].Cash > standings[j].Cash })
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
