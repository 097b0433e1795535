package game

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
)

// Phase is the state-machine state of a game.
type Phase int

const (
	PhaseAwaitingPlacement Phase = iota
	PhaseChainFounding
	PhaseMergerResolution
	PhaseStockDisposition
	PhaseBuyStock
	PhaseDrawTile
	PhaseGameOver
)

// String returns the wire name of the phase. StockDisposition is always
// reported as its own phase, never collapsed into a generic merger label.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingPlacement:
		return "awaiting_placement"
	case PhaseChainFounding:
		return "chain_founding"
	case PhaseMergerResolution:
		return "merger_resolution"
	case PhaseStockDisposition:
		return "stock_disposition"
	case PhaseBuyStock:
		return "buy_stock"
	case PhaseDrawTile:
		return "draw_tile"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Seat describes one player joining a new game.
type Seat struct {
	ID   string
	Name string
	Bot  bool
}

// Game is the state machine orchestrating phases. It exclusively owns the
// board, the players and any merger context; it is the sole writer of its
// own state and callers serialize access (one writer per game).
type Game struct {
	cfg    Config
	logger *log.Logger

	board      *Board
	chains     map[ChainName]*Chain
	players    []*Player
	byID       map[string]*Player
	bag        *Bag
	sharesLeft map[ChainName]int

	phase   Phase
	current int // index into players: whose turn it is
	moves   int
	bought  int // shares bought by the current player this turn

	merger        *MergerContext
	foundingGroup []Coord // placed tiles awaiting a chain name
	deadTiles     []Coord // discarded as permanently unplayable

	standings []Standing
	events    EventBus
}

// NewGame seats the given players, shuffles the bag with rng and deals
// starting hands. The first seat acts first.
func NewGame(cfg Config, logger *log.Logger, rng *rand.Rand, seats []Seat) (*Game, error) {
	if len(seats) < cfg.MinPlayers || len(seats) > cfg.MaxPlayers {
		return nil, fmt.Errorf("need between %d and %d players, got %d", cfg.MinPlayers, cfg.MaxPlayers, len(seats))
	}

	g := &Game{
		cfg:        cfg,
		logger:     logger.WithPrefix("game"),
		board:      NewBoard(cfg.Cols, cfg.Rows),
		chains:     make(map[ChainName]*Chain),
		byID:       make(map[string]*Player),
		bag:        NewBag(rng, cfg.Cols, cfg.Rows),
		sharesLeft: make(map[ChainName]int),
		phase:      PhaseAwaitingPlacement,
		events:     NewEventBus(),
	}
	for _, name := range ChainRoster {
		g.sharesLeft[name] = cfg.SharesPerChain
	}
	for _, seat := range seats {
		if _, dup := g.byID[seat.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %q", seat.ID)
		}
		p := NewPlayer(seat.ID, seat.Name, cfg.StartingCash, seat.Bot)
		for g.dealTile(p) == nil {
		}
		g.players = append(g.players, p)
		g.byID[seat.ID] = p
	}
	g.startTurn()
	return g, nil
}

// Events returns the bus publishing state changes for this game.
func (g *Game) Events() EventBus { return g.events }

// Phase returns the current state-machine state.
func (g *Game) Phase() Phase { return g.phase }

// MoveCount returns the number of applied actions.
func (g *Game) MoveCount() int { return g.moves }

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player { return g.players[g.current] }

// Player looks up a seated player by ID.
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.byID[id]
	return p, ok
}

// Chain returns the chain record for a name, nil if never founded.
func (g *Game) Chain(name ChainName) *Chain { return g.chains[name] }

// SharesRemaining returns the bank's undistributed shares for a chain.
func (g *Game) SharesRemaining(name ChainName) int { return g.sharesLeft[name] }

// Merger exposes the pending merger context, nil outside a merger.
func (g *Game) Merger() *MergerContext { return g.merger }

// Standings returns the final ranking; empty until GameOver.
func (g *Game) Standings() []Standing { return g.standings }

// PendingActor returns the player owed the next decision, empty once the
// game is over.
func (g *Game) PendingActor() string {
	switch g.phase {
	case PhaseStockDisposition:
		if g.merger != nil {
			if id, ok := g.merger.Decider(); ok {
				return id
			}
		}
		return ""
	case PhaseGameOver:
		return ""
	default:
		return g.CurrentPlayer().ID
	}
}

// Apply validates and applies one action from the shared vocabulary. On
// success the move counter advances and a state change is published; on
// failure the game state is untouched and only the caller learns why.
func (g *Game) Apply(playerID string, act Action) error {
	if g.phase == PhaseGameOver {
		return ErrGameOver
	}
	if _, ok := g.byID[playerID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	var err error
	switch act.Type {
	case ActionPlaceTile:
		err = g.placeTile(playerID, act.Tile)
	case ActionFoundChain:
		err = g.foundChain(playerID, act.Chain)
	case ActionChooseSurvivor:
		err = g.chooseSurvivor(playerID, act.Chain)
	case ActionDisposition:
		err = g.disposition(playerID, act.Chain, act.Sell, act.Trade, act.Hold)
	case ActionBuyStock:
		err = g.buyStock(playerID, act.Chain, act.Count)
	case ActionEndTurn:
		err = g.endTurn(playerID)
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrInvalidPhase, act.Type)
	}
	if err != nil {
		return err
	}

	g.moves++
	g.events.Publish(NewStateChangedEvent(playerID, act.Type, g.phase, g.moves))
	if g.phase == PhaseGameOver {
		g.events.Publish(NewGameOverEvent(g.standings))
	}
	return nil
}

// requireTurn checks that the game is in phase and playerID is the current
// player.
func (g *Game) requireTurn(playerID string, phase Phase) error {
	if g.phase != phase {
		return fmt.Errorf("%w: in %s", ErrInvalidPhase, g.phase)
	}
	if g.CurrentPlayer().ID != playerID {
		return fmt.Errorf("%w: waiting on %s", ErrOutOfTurn, g.CurrentPlayer().ID)
	}
	return nil
}

func (g *Game) placeTile(playerID string, tile Coord) error {
	if err := g.requireTurn(playerID, PhaseAwaitingPlacement); err != nil {
		return err
	}
	p := g.byID[playerID]
	if !p.HasTile(tile) {
		return fmt.Errorf("%w: %s not in hand", ErrIllegalPlacement, tile)
	}
	if !CanPlaceTile(g.board, g.chains, tile, g.cfg) {
		return fmt.Errorf("%w: %s would merge safe chains", ErrIllegalPlacement, tile)
	}

	p.RemoveTile(tile)
	g.board.Place(tile)
	adjacent := g.board.ChainsAdjacentTo(tile)

	switch {
	case len(adjacent) == 0 && g.board.HasUnchainedNeighbor(tile):
		group := append([]Coord{tile}, g.board.UnchainedGroup(tile)...)
		if len(g.availableChains()) == 0 {
			// All seven chains are on the board: the tiles stay
			// unchained until a name frees up.
			g.logger.Debug("founding deferred, no chain names free", "tile", tile)
			g.phase = PhaseBuyStock
			return nil
		}
		g.foundingGroup = group
		g.phase = PhaseChainFounding

	case len(adjacent) == 0:
		g.phase = PhaseBuyStock

	case len(adjacent) == 1:
		g.growChain(adjacent[0], tile)
		g.phase = PhaseBuyStock

	default:
		outcome := DetermineMerger(g.board, g.chains, tile, g.cfg)
		if outcome.Survivor == "" {
			g.merger = &MergerContext{Trigger: tile, Tied: outcome.Tied}
			g.phase = PhaseMergerResolution
			g.logger.Debug("merger survivor tie", "tile", tile, "candidates", outcome.Tied)
		} else {
			g.resolveMerger(tile, outcome.Survivor, outcome.Involved)
		}
	}
	return nil
}

// growChain absorbs the placed tile and any connected unchained tiles into
// an existing chain.
func (g *Game) growChain(name ChainName, tile Coord) {
	ch := g.chains[name]
	for _, c := range append([]Coord{tile}, g.board.UnchainedGroup(tile)...) {
		g.board.Assign(c, name)
		ch.Tiles = append(ch.Tiles, c)
	}
}

func (g *Game) foundChain(playerID string, name ChainName) error {
	if err := g.requireTurn(playerID, PhaseChainFounding); err != nil {
		return err
	}
	if !name.Valid() {
		return fmt.Errorf("%w: unknown chain %q", ErrIllegalPlacement, name)
	}
	if ch := g.chains[name]; ch != nil && ch.Active() {
		return fmt.Errorf("%w: %s already on the board", ErrIllegalPlacement, name)
	}

	ch := g.chains[name]
	if ch == nil {
		ch = &Chain{Name: name}
		g.chains[name] = ch
	}
	ch.Defunct = false
	ch.Tiles = nil
	ch.FoundedAt = g.moves
	for _, c := range g.foundingGroup {
		g.board.Assign(c, name)
		ch.Tiles = append(ch.Tiles, c)
	}
	g.foundingGroup = nil

	p := g.byID[playerID]
	if g.cfg.FounderShare && g.sharesLeft[name] > 0 {
		g.sharesLeft[name]--
		_ = p.AdjustStock(name, 1)
	}
	g.logger.Debug("chain founded", "chain", name, "size", ch.Size(), "founder", p.Name)
	g.phase = PhaseBuyStock
	return nil
}

func (g *Game) chooseSurvivor(playerID string, name ChainName) error {
	if err := g.requireTurn(playerID, PhaseMergerResolution); err != nil {
		return err
	}
	if g.merger == nil || !g.merger.AwaitingSurvivor() {
		return fmt.Errorf("%w: no survivor choice pending", ErrInvalidPhase)
	}
	if !g.merger.isTiedCandidate(name) {
		return fmt.Errorf("%w: %s is not a tied survivor candidate", ErrIllegalPlacement, name)
	}

	tile := g.merger.Trigger
	involved := g.board.ChainsAdjacentTo(tile)
	sortChains(involved, g.chains, g.cfg)
	g.resolveMerger(tile, name, involved)
	return nil
}

// resolveMerger folds every non-surviving chain into the survivor, freezes
// defunct prices, and opens the disposition protocol. Chain-merge
// application is atomic with the placement: no two chains are ever left
// touching without being merged in the same transaction.
func (g *Game) resolveMerger(tile Coord, survivor ChainName, involved []ChainName) {
	var defunct []DefunctChain
	for _, name := range involved {
		if name == survivor {
			continue
		}
		ch := g.chains[name]
		defunct = append(defunct, DefunctChain{
			Name:  name,
			Size:  ch.Size(),
			Price: SharePrice(name, ch.Size()),
		})
	}

	surv := g.chains[survivor]
	for _, d := range defunct {
		ch := g.chains[d.Name]
		for _, c := range ch.Tiles {
			g.board.Assign(c, survivor)
			surv.Tiles = append(surv.Tiles, c)
		}
		ch.Tiles = nil
		ch.Defunct = true
	}
	for _, c := range append([]Coord{tile}, g.board.UnchainedGroup(tile)...) {
		g.board.Assign(c, survivor)
		surv.Tiles = append(surv.Tiles, c)
	}

	g.merger = &MergerContext{Trigger: tile, Survivor: survivor, Defunct: defunct}
	g.logger.Debug("merger resolved", "survivor", survivor, "defunct", len(defunct), "size", surv.Size())
	g.openDispositionChain()
}

// openDispositionChain pays bonuses for the current defunct chain and
// queues its holders in turn order from the acting player. Chains nobody
// holds are skipped; when the queue is exhausted the merger completes.
func (g *Game) openDispositionChain() {
	for {
		cur, ok := g.merger.Current()
		if !ok {
			g.merger = nil
			g.phase = PhaseBuyStock
			return
		}

		holdings := make(map[string]int)
		for _, p := range g.players {
			holdings[p.ID] = p.Holding(cur.Name)
		}
		for id, bonus := range StockPayout(cur.Price, holdings, g.cfg.BonusStep) {
			g.byID[id].AddCash(bonus)
			g.logger.Debug("bonus paid", "chain", cur.Name, "player", id, "amount", bonus)
		}

		var queue []string
		for i := 0; i < len(g.players); i++ {
			p := g.players[(g.current+i)%len(g.players)]
			if p.Holding(cur.Name) > 0 {
				queue = append(queue, p.ID)
			}
		}
		if len(queue) > 0 {
			g.merger.queue = queue
			g.phase = PhaseStockDisposition
			return
		}
		g.merger.chainIdx++
	}
}

func (g *Game) disposition(playerID string, chain ChainName, sell, trade, hold int) error {
	if g.phase != PhaseStockDisposition {
		return fmt.Errorf("%w: in %s", ErrInvalidPhase, g.phase)
	}
	cur, ok := g.merger.Current()
	if !ok {
		return fmt.Errorf("%w: no disposition pending", ErrInvalidPhase)
	}
	if decider, _ := g.merger.Decider(); decider != playerID {
		return fmt.Errorf("%w: waiting on %s", ErrOutOfTurn, decider)
	}
	if chain != cur.Name {
		return fmt.Errorf("%w: resolving %s, not %s", ErrInvalidPhase, cur.Name, chain)
	}
	p := g.byID[playerID]
	if sell < 0 || trade < 0 || hold < 0 || sell+trade+hold != p.Holding(chain) {
		return fmt.Errorf("%w: disposition must cover exactly %d shares of %s", ErrInsufficientShares, p.Holding(chain), chain)
	}
	if trade%2 != 0 {
		return fmt.Errorf("%w: trades are 2-for-1, got odd count %d", ErrInsufficientShares, trade)
	}
	if trade/2 > g.sharesLeft[g.merger.Survivor] {
		return fmt.Errorf("%w: only %d %s shares remain", ErrInsufficientShares, g.sharesLeft[g.merger.Survivor], g.merger.Survivor)
	}

	cash, survivorShares := DispositionValue(sell, trade, cur.Price)
	p.AddCash(cash)
	_ = p.AdjustStock(chain, -(sell + trade))
	g.sharesLeft[chain] += sell + trade
	if survivorShares > 0 {
		_ = p.AdjustStock(g.merger.Survivor, survivorShares)
		g.sharesLeft[g.merger.Survivor] -= survivorShares
	}
	g.logger.Debug("disposition", "player", p.Name, "chain", chain, "sell", sell, "trade", trade, "hold", hold)

	g.merger.popDecider()
	if _, pending := g.merger.Decider(); !pending {
		g.merger.chainIdx++
		g.openDispositionChain()
	}
	return nil
}

func (g *Game) buyStock(playerID string, chain ChainName, count int) error {
	if err := g.requireTurn(playerID, PhaseBuyStock); err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("%w: count must be positive", ErrInsufficientShares)
	}
	ch := g.chains[chain]
	if ch == nil || !ch.Active() {
		return fmt.Errorf("%w: %s is not an active chain", ErrIllegalPlacement, chain)
	}
	if g.bought+count > g.cfg.BuyLimit {
		return fmt.Errorf("%w: turn buy limit is %d shares", ErrInsufficientShares, g.cfg.BuyLimit)
	}
	if count > g.sharesLeft[chain] {
		return fmt.Errorf("%w: only %d %s shares remain", ErrInsufficientShares, g.sharesLeft[chain], chain)
	}

	p := g.byID[playerID]
	price := SharePrice(chain, ch.Size())
	if err := p.RemoveCash(price * count); err != nil {
		return err
	}
	_ = p.AdjustStock(chain, count)
	g.sharesLeft[chain] -= count
	g.bought += count
	return nil
}

func (g *Game) endTurn(playerID string) error {
	switch g.phase {
	case PhaseBuyStock:
		if err := g.requireTurn(playerID, PhaseBuyStock); err != nil {
			return err
		}
	case PhaseAwaitingPlacement:
		// A turn may only be passed when no tile in hand is playable,
		// which the turn-start sweep could not fix (empty bag).
		if err := g.requireTurn(playerID, PhaseAwaitingPlacement); err != nil {
			return err
		}
		for _, playable := range TilePlayability(g.board, g.chains, g.byID[playerID].Hand, g.cfg) {
			if playable {
				return fmt.Errorf("%w: playable tiles remain", ErrInvalidPhase)
			}
		}
	default:
		return fmt.Errorf("%w: in %s", ErrInvalidPhase, g.phase)
	}

	g.phase = PhaseDrawTile
	p := g.byID[playerID]
	for g.dealTile(p) == nil {
	}

	if g.gameOver() {
		g.finishGame()
		return nil
	}

	g.current = (g.current + 1) % len(g.players)
	g.bought = 0
	g.phase = PhaseAwaitingPlacement
	g.startTurn()
	return nil
}

// startTurn runs the unplayable-hand sweep for the player about to act.
// This is part of normal turn start, not a reactive path.
func (g *Game) startTurn() {
	g.handleAllTilesUnplayable(g.CurrentPlayer())
}

// handleAllTilesUnplayable discards and replaces the whole hand when every
// tile fails CanPlaceTile. Discarded tiles are permanently dead and never
// return to circulation. Replacement repeats until the hand has a playable
// tile or the bag runs dry, in which case the player continues with a
// reduced hand.
func (g *Game) handleAllTilesUnplayable(p *Player) {
	for len(p.Hand) > 0 {
		anyPlayable := false
		for _, ok := range TilePlayability(g.board, g.chains, p.Hand, g.cfg) {
			if ok {
				anyPlayable = true
				break
			}
		}
		if anyPlayable {
			return
		}

		discarded := len(p.Hand)
		g.deadTiles = append(g.deadTiles, p.Hand...)
		g.logger.Info("replacing unplayable hand", "player", p.Name, "tiles", discarded)
		p.Hand = nil

		drawn := 0
		for i := 0; i < discarded; i++ {
			if g.dealTile(p) != nil {
				break
			}
			drawn++
		}
		if drawn == 0 {
			return
		}
	}
}

// dealTile moves one tile from the bag into p's hand. ErrHandOverflow and
// ErrBagExhausted are the expected stop conditions for refill loops.
func (g *Game) dealTile(p *Player) error {
	if len(p.Hand) >= g.cfg.HandSize {
		return fmt.Errorf("%w: hand holds %d", ErrHandOverflow, len(p.Hand))
	}
	tile, ok := g.bag.Draw()
	if !ok {
		return ErrBagExhausted
	}
	p.AddTile(tile)
	return nil
}

// gameOver checks the end conditions: a chain at maximum size, every active
// chain safe with no legal placement left anywhere, or an exhausted bag with
// no chains on the board.
func (g *Game) gameOver() bool {
	active := 0
	allSafe := true
	for _, ch := range g.chains {
		if !ch.Active() {
			continue
		}
		active++
		if ch.Size() >= g.cfg.GameEndSize {
			return true
		}
		if ch.Size() < g.cfg.SafeSize {
			allSafe = false
		}
	}
	if active > 0 && allSafe && !g.movesRemain() {
		return true
	}
	return active == 0 && g.bag.Len() == 0
}

// movesRemain reports whether any playable tile is left in a hand or in the
// bag. Safe chains may still be grown, so all-safe alone does not end the
// game while placements are possible.
func (g *Game) movesRemain() bool {
	for _, p := range g.players {
		for _, ok := range TilePlayability(g.board, g.chains, p.Hand, g.cfg) {
			if ok {
				return true
			}
		}
	}
	for _, tile := range g.bag.tiles {
		if CanPlaceTile(g.board, g.chains, tile, g.cfg) {
			return true
		}
	}
	return false
}

// finishGame pays final bonuses for every active chain, liquidates all
// holdings at current prices and ranks the players.
func (g *Game) finishGame() {
	for _, name := range ChainRoster {
		ch := g.chains[name]
		if ch == nil || !ch.Active() {
			continue
		}
		price := SharePrice(name, ch.Size())
		holdings := make(map[string]int)
		for _, p := range g.players {
			holdings[p.ID] = p.Holding(name)
		}
		for id, bonus := range StockPayout(price, holdings, g.cfg.BonusStep) {
			g.byID[id].AddCash(bonus)
		}
		for _, p := range g.players {
			if n := p.Holding(name); n > 0 {
				p.AddCash(n * price)
				_ = p.AdjustStock(name, -n)
				g.sharesLeft[name] += n
			}
		}
	}

	g.standings = rankPlayers(g.players)
	g.phase = PhaseGameOver
	g.logger.Info("game over", "winner", g.standings[0].Name, "cash", g.standings[0].Cash)
}

// availableChains returns roster names not currently on the board.
func (g *Game) availableChains() []ChainName {
	var names []ChainName
	for _, name := range ChainRoster {
		if ch := g.chains[name]; ch == nil || !ch.Active() {
			names = append(names, name)
		}
	}
	return names
}
