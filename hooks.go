package swrcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths, including from background refreshes.
type Hooks interface {
	// Fetch classified a read. state is StateMiss when nothing was stored.
	Lookup(storageKey string, state State)

	// A stale entry was served and a refresh handed to the executor.
	RefreshScheduled(storageKey string)
	// A stale entry was served but the executor was unavailable.
	RefreshSkipped(storageKey string)
	// A background refresh failed to compute or store.
	RefreshFailed(storageKey string, err error)

	// A stored entry failed envelope or schema decoding.
	DecodeFailed(storageKey string, err error)

	// Provider call failed. op ∈ {"get", "set", "del", "list"}.
	ProviderError(op, storageKey string, err error)
	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// InvalidatePrefix removed deleted keys under prefix.
	PrefixInvalidated(prefix string, deleted int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Lookup(string, State)                {}
func (NopHooks) RefreshScheduled(string)             {}
func (NopHooks) RefreshSkipped(string)               {}
func (NopHooks) RefreshFailed(string, error)         {}
func (NopHooks) DecodeFailed(string, error)          {}
func (NopHooks) ProviderError(string, string, error) {}
func (NopHooks) ProviderSetRejected(string)          {}
func (NopHooks) PrefixInvalidated(string, int)       {}
