package game

// ActionType names the shared action vocabulary used by remote clients and
// bots alike. The Game applies actions through the single Apply entrypoint
// and never cares which kind of actor produced them.
type ActionType string

const (
	ActionPlaceTile      ActionType = "place_tile"
	ActionFoundChain     ActionType = "found_chain"
	ActionChooseSurvivor ActionType = "choose_survivor"
	ActionDisposition    ActionType = "disposition"
	ActionBuyStock       ActionType = "buy_stock"
	ActionEndTurn        ActionType = "end_turn"
)

// String returns the wire name of the action type.
func (a ActionType) String() string { return string(a) }

// Action is one inbound game action. Only the fields relevant to Type are
// consulted.
type Action struct {
	Type  ActionType
	Tile  Coord
	Chain ChainName
	Sell  int
	Trade int
	Hold  int
	Count int
}

// Agent is a decision source driving a seat: the bot strategy implements
// it, and tests use scripted agents. Propose receives a read-only view and
// returns the next action for the pending decision; it must consult the
// view's playability map rather than re-deriving legality.
type Agent interface {
	Propose(view PlayerView) Action
}
