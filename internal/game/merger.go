package game

// DefunctChain is one merged-away chain awaiting stock disposition. Price
// is frozen at the chain's size when the merger triggered, so later board
// growth never changes what holders are owed.
type DefunctChain struct {
	Name  ChainName
	Size  int
	Price int
}

// MergerContext is the resumable sub-state of a multi-step merger. It lives
// on the Game for the whole protocol, so a reconnecting client or restarted
// handler resumes exactly where the flow left off.
type MergerContext struct {
	Trigger  Coord
	Survivor ChainName
	Tied     []ChainName // non-empty only while a survivor choice is pending

	// Defunct chains queue, largest first. Disposition proceeds
	// chain-by-chain and never interleaves decisions across chains.
	Defunct  []DefunctChain
	chainIdx int

	// Holders of the current defunct chain still owed a decision, in turn
	// order starting from the placing player.
	queue []string
}

// AwaitingSurvivor reports whether the placing player still owes a survivor
// choice.
func (m *MergerContext) AwaitingSurvivor() bool {
	return m.Survivor == "" && len(m.Tied) > 0
}

// Current returns the defunct chain being resolved.
func (m *MergerContext) Current() (DefunctChain, bool) {
	if m.chainIdx >= len(m.Defunct) {
		return DefunctChain{}, false
	}
	return m.Defunct[m.chainIdx], true
}

// Decider returns the player owed the next disposition decision.
func (m *MergerContext) Decider() (string, bool) {
	if len(m.queue) == 0 {
		return "", false
	}
	return m.queue[0], true
}

// popDecider removes the player at the head of the decision queue.
func (m *MergerContext) popDecider() {
	if len(m.queue) > 0 {
		m.queue = m.queue[1:]
	}
}

// isTiedCandidate reports whether name is a valid survivor choice.
func (m *MergerContext) isTiedCandidate(name ChainName) bool {
	for _, c := range m.Tied {
		if c == name {
			return true
		}
	}
	return false
}
