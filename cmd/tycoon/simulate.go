package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/chainmerge/tycoon/cmd/tycoon/shared"
	"github.com/chainmerge/tycoon/internal/bot"
	"github.com/chainmerge/tycoon/internal/game"
)

// SimulateCmd plays complete bot-vs-bot games in process, without the
// server. Useful for exercising the rules engine and comparing seat
// advantage across many games.
type SimulateCmd struct {
	Games   int    `kong:"default='100',help='Number of games to simulate'"`
	Players int    `kong:"default='4',help='Players per game'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Verbose bool   `short:"V" help:"Verbose logging"`
}

// moveCap bounds a single game; a well-formed game ends far earlier, so
// hitting it means the engine or a bot is stuck.
const moveCap = 5000

type simStats struct {
	games     int
	moves     int
	wins      map[string]int
	totalCash map[string]int
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Verbose)
	if !c.Verbose {
		logger.SetLevel(log.WarnLevel)
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	masterRng := rand.New(rand.NewSource(seed))

	cfg := game.DefaultConfig()
	if c.Players < cfg.MinPlayers || c.Players > cfg.MaxPlayers {
		return fmt.Errorf("players must be between %d and %d", cfg.MinPlayers, cfg.MaxPlayers)
	}

	fmt.Printf("Simulating %d games of %d bots (seed: %d)\n\n", c.Games, c.Players, seed)
	start := time.Now()

	stats := simStats{
		wins:      make(map[string]int),
		totalCash: make(map[string]int),
	}

	// Seeds are drawn up front so results are reproducible regardless of
	// how the games interleave across workers.
	seeds := make([]int64, c.Games)
	for i := range seeds {
		seeds[i] = masterRng.Int63()
	}

	type result struct {
		standings []game.Standing
		moves     int
	}
	results := make([]result, c.Games)

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i := 0; i < c.Games; i++ {
		i := i
		eg.Go(func() error {
			standings, moves, err := playOne(cfg, logger, c.Players, seeds[i])
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			results[i] = result{standings: standings, moves: moves}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		stats.games++
		stats.moves += r.moves
		for _, s := range r.standings {
			if s.Rank == 1 {
				stats.wins[s.PlayerID]++
			}
			stats.totalCash[s.PlayerID] += s.Cash
		}
	}

	printSimResults(stats, time.Since(start))
	return nil
}

// playOne runs a single all-bot game to completion and returns the final
// standings and the move count.
func playOne(cfg game.Config, logger *log.Logger, players int, seed int64) ([]game.Standing, int, error) {
	rng := rand.New(rand.NewSource(seed))

	seats := make([]game.Seat, players)
	agents := make(map[string]game.Agent, players)
	for i := range seats {
		// Seat order rotates with the seed via the shuffled tile bag, so
		// identical names across games still exercise different positions.
		name := fmt.Sprintf("bot-%d", i+1)
		seats[i] = game.Seat{ID: name, Name: name, Bot: true}
		agents[name] = bot.New(logger, rand.New(rand.NewSource(rng.Int63())))
	}

	g, err := game.NewGame(cfg, logger, rng, seats)
	if err != nil {
		return nil, 0, err
	}

	moves := 0
	for g.Phase() != game.PhaseGameOver {
		if moves >= moveCap {
			return nil, moves, fmt.Errorf("game exceeded %d moves in phase %s", moveCap, g.Phase())
		}

		actor := g.PendingActor()
		view, ok := g.PlayerView(actor)
		if !ok {
			return nil, moves, fmt.Errorf("no view for pending actor %s", actor)
		}

		act := agents[actor].Propose(view)
		if err := g.Apply(actor, act); err != nil {
			return nil, moves, fmt.Errorf("%s proposed illegal %s: %w", actor, act.Type, err)
		}
		moves++
	}

	return g.Standings(), moves, nil
}

func printSimResults(stats simStats, duration time.Duration) {
	fmt.Printf("Completed %d games in %s (%.1f moves/game avg)\n\n",
		stats.games, duration.Round(time.Millisecond),
		float64(stats.moves)/float64(stats.games))

	names := make([]string, 0, len(stats.totalCash))
	for name := range stats.totalCash {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-10s %8s %8s %12s\n", "Seat", "Wins", "Win%", "Avg cash")
	for _, name := range names {
		wins := stats.wins[name]
		fmt.Printf("%-10s %8d %7.1f%% %12.0f\n",
			name, wins,
			100*float64(wins)/float64(stats.games),
			float64(stats.totalCash[name])/float64(stats.games))
	}
}
