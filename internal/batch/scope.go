package batch

// ScopeFloor is the chunk size below which exhaustion no longer shrinks the
// scope. Halving past this point would trade away too much throughput for
// quotas that evidently cannot be satisfied by sizing alone.
const ScopeFloor = 25

// AdaptScope computes the next generation's chunk-size target.
//
// Sustained exhaustion backs off geometrically until the floor; a single
// clean generation restores the baseline in full, so transient pressure
// never caps capacity permanently.
func AdaptScope(hadExhaustion bool, scopeSize, origScopeSize int) int {
	if hadExhaustion {
		if scopeSize > ScopeFloor {
			return scopeSize / 2
		}
		return scopeSize
	}
	return origScopeSize
}
