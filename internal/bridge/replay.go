package bridge

// replayGuard tracks consumed inbound message keys. A reserved key is
// consumed permanently: no expiry and no eviction, so a message can never be
// applied twice. Timestamps are informational only and play no part in
// acceptance; clock skew across ledgers makes freshness checks unreliable.
//
// Callers must hold the service lock, which makes reservation atomic with
// the record mutations it protects.
type replayGuard struct {
	used map[ReceiptKey]struct{}
}

func newReplayGuard() *replayGuard {
	return &replayGuard{used: make(map[ReceiptKey]struct{})}
}

// consumed reports whether key has already been reserved.
func (g *replayGuard) consumed(key ReceiptKey) bool {
	_, ok := g.used[key]
	return ok
}

// reserve consumes key, or reports ErrNonceAlreadyUsed if it was consumed
// before.
func (g *replayGuard) reserve(key ReceiptKey) error {
	if g.consumed(key) {
		return ErrNonceAlreadyUsed
	}
	g.used[key] = struct{}{}
	return nil
}

func (g *replayGuard) size() int {
	return len(g.used)
}
