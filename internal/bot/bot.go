// Package bot implements an automated player. It drives a seat through the
// same action vocabulary remote clients use and takes every legality answer
// from the game's playability map, never from its own reading of the board.
package bot

import (
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/chainmerge/tycoon/internal/game"
)

// Bot is a heuristic strategy implementing game.Agent.
type Bot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// New creates a bot. The RNG only breaks ties between equally ranked moves.
func New(logger *log.Logger, rng *rand.Rand) *Bot {
	return &Bot{
		rng:    rng,
		logger: logger.WithPrefix("bot"),
	}
}

// Propose returns the bot's next action for the pending decision.
func (b *Bot) Propose(view game.PlayerView) game.Action {
	switch view.Public.Phase {
	case game.PhaseAwaitingPlacement.String():
		return b.proposePlacement(view)
	case game.PhaseChainFounding.String():
		return b.proposeFounding(view)
	case game.PhaseMergerResolution.String():
		return b.proposeSurvivor(view)
	case game.PhaseStockDisposition.String():
		return b.proposeDisposition(view)
	case game.PhaseBuyStock.String():
		return b.proposeBuy(view)
	default:
		return game.Action{Type: game.ActionEndTurn}
	}
}

// proposePlacement filters the hand through the playability map and ranks
// the candidates: found a chain, then grow the bot's largest position, then
// a quiet tile touching nothing, then anything legal. A hand with no
// playable tile yields a pass; the engine owns dead-tile replacement.
func (b *Bot) proposePlacement(view game.PlayerView) game.Action {
	var playable []game.Coord
	for _, label := range view.Hand {
		if !view.Playability[label] {
			continue
		}
		tile, err := game.ParseCoord(label)
		if err != nil {
			continue
		}
		playable = append(playable, tile)
	}
	if len(playable) == 0 {
		return game.Action{Type: game.ActionEndTurn}
	}

	occupied, chainAt := boardIndex(view.Public.Tiles)
	namesFree := false
	for _, cs := range view.Public.Chains {
		if !cs.Active {
			namesFree = true
			break
		}
	}

	best := playable[b.rng.Intn(len(playable))]
	bestScore := -1
	for _, tile := range playable {
		adjChains, adjUnchained := classify(tile, occupied, chainAt)
		var score int
		switch {
		case len(adjChains) == 0 && adjUnchained && namesFree:
			score = 3 // founds a chain
		case len(adjChains) == 1:
			score = 1 + b.growthBonus(view, adjChains[0])
		case len(adjChains) == 0 && !adjUnchained:
			score = 1 // quiet placement
		default:
			score = 0 // merger or name-starved founding
		}
		if score > bestScore {
			bestScore = score
			best = tile
		}
	}

	b.logger.Debug("placement chosen", "tile", best, "score", bestScore)
	return game.Action{Type: game.ActionPlaceTile, Tile: best}
}

// growthBonus rewards growing the chain the bot holds the most of.
func (b *Bot) growthBonus(view game.PlayerView, chain string) int {
	most := ""
	top := 0
	for name, n := range view.Stocks {
		if n > top {
			top, most = n, name
		}
	}
	if most == chain {
		return 1
	}
	return 0
}

func (b *Bot) proposeFounding(view game.PlayerView) game.Action {
	names := view.Public.AvailableChains
	if len(names) == 0 {
		return game.Action{Type: game.ActionEndTurn}
	}
	// Cheapest tier first: majorities are easier to keep in budget chains.
	pick := names[0]
	for _, name := range names {
		if game.ChainName(name).Tier() < game.ChainName(pick).Tier() {
			pick = name
		}
	}
	return game.Action{Type: game.ActionFoundChain, Chain: game.ChainName(pick)}
}

func (b *Bot) proposeSurvivor(view game.PlayerView) game.Action {
	candidates := view.Public.SurvivorChoice
	pick := candidates[0]
	for _, name := range candidates {
		if view.Stocks[name] > view.Stocks[pick] {
			pick = name
		}
	}
	return game.Action{Type: game.ActionChooseSurvivor, Chain: game.ChainName(pick)}
}

// proposeDisposition covers every held share in one decision: trade into
// the survivor while the bank has shares and the exchange beats selling,
// sell the rest.
func (b *Bot) proposeDisposition(view game.PlayerView) game.Action {
	d := view.Public.Disposition
	holding := view.Stocks[d.Chain]

	survivorPrice := 0
	for _, cs := range view.Public.Chains {
		if cs.Name == d.Survivor {
			survivorPrice = cs.Price
		}
	}
	sellPair, _ := game.DispositionValue(2, 0, d.Price)

	trade := 0
	if survivorPrice >= sellPair {
		trade = holding - holding%2
		if trade/2 > d.SurvivorLeft {
			trade = d.SurvivorLeft * 2
		}
	}
	sell := holding - trade

	return game.Action{
		Type:  game.ActionDisposition,
		Chain: game.ChainName(d.Chain),
		Sell:  sell,
		Trade: trade,
		Hold:  0,
	}
}

// proposeBuy spends up to the turn limit on the chain the bot is already
// deepest in, falling back to the largest affordable chain.
func (b *Bot) proposeBuy(view game.PlayerView) game.Action {
	if view.BuyLeft <= 0 {
		return game.Action{Type: game.ActionEndTurn}
	}

	chains := make([]game.ChainState, 0, len(view.Public.Chains))
	for _, cs := range view.Public.Chains {
		if cs.Active && cs.SharesLeft > 0 && cs.Price <= view.Cash {
			chains = append(chains, cs)
		}
	}
	if len(chains) == 0 {
		return game.Action{Type: game.ActionEndTurn}
	}
	sort.SliceStable(chains, func(i, j int) bool {
		if view.Stocks[chains[i].Name] != view.Stocks[chains[j].Name] {
			return view.Stocks[chains[i].Name] > view.Stocks[chains[j].Name]
		}
		return chains[i].Size > chains[j].Size
	})

	pick := chains[0]
	count := view.BuyLeft
	if count > pick.SharesLeft {
		count = pick.SharesLeft
	}
	for count > 1 && count*pick.Price > view.Cash {
		count--
	}
	if count*pick.Price > view.Cash {
		return game.Action{Type: game.ActionEndTurn}
	}
	return game.Action{Type: game.ActionBuyStock, Chain: game.ChainName(pick.Name), Count: count}
}

// boardIndex converts the snapshot tile list into lookup maps.
func boardIndex(tiles []game.TileState) (map[game.Coord]bool, map[game.Coord]string) {
	occupied := make(map[game.Coord]bool, len(tiles))
	chainAt := make(map[game.Coord]string, len(tiles))
	for _, ts := range tiles {
		c, err := game.ParseCoord(ts.Tile)
		if err != nil {
			continue
		}
		occupied[c] = true
		if ts.Chain != "" {
			chainAt[c] = ts.Chain
		}
	}
	return occupied, chainAt
}

// classify reports the distinct chains adjacent to a tile and whether any
// neighbor is an occupied unchained tile.
func classify(tile game.Coord, occupied map[game.Coord]bool, chainAt map[game.Coord]string) ([]string, bool) {
	var chains []string
	seen := make(map[string]bool)
	unchained := false
	for _, n := range tile.Neighbors() {
		if !occupied[n] {
			continue
		}
		if name, ok := chainAt[n]; ok {
			if !seen[name] {
				seen[name] = true
				chains = append(chains, name)
			}
		} else {
			unchained = true
		}
	}
	return chains, unchained
}
