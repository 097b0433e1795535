package game

import "errors"

// Rule violations are rejected without mutating game state. Callers
// discriminate with errors.Is and report the reason to the originating
// actor only.
var (
	// ErrInvalidPhase means the action does not match the current phase.
	ErrInvalidPhase = errors.New("action not valid in current phase")

	// ErrOutOfTurn means the action came from the wrong actor.
	ErrOutOfTurn = errors.New("not this player's turn")

	// ErrIllegalPlacement means the tile fails CanPlaceTile or is not in
	// the player's hand.
	ErrIllegalPlacement = errors.New("illegal tile placement")

	// ErrInsufficientFunds means a cash debit would go negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares means the bank cannot supply the requested
	// shares, or a disposition references shares the player does not hold.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrHandOverflow means a draw would exceed the hand size limit.
	ErrHandOverflow = errors.New("hand size limit exceeded")

	// ErrBagExhausted is non-fatal: the bag cannot supply a replacement
	// tile and the player continues with a reduced hand.
	ErrBagExhausted = errors.New("tile bag exhausted")

	// ErrUnknownPlayer means the actor is not seated in this game.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrGameOver means the game has reached its terminal state.
	ErrGameOver = errors.New("game is over")
)
