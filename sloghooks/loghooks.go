package sloghooks

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/unkn0wn-root/swrcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	LookupEvery  uint64 // lookups are only logged when this is set
	RefreshEvery uint64
	// Optional key redactor. Defaults to a 64-bit xxhash in hex.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	lookupCtr  atomic.Uint64
	refreshCtr atomic.Uint64
}

var _ swrcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return strconv.FormatUint(xxhash.Sum64String(k), 16)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Lookup(storageKey string, state swrcache.State) {
	if h.l == nil || h.opts.LookupEvery == 0 || !sample(h.opts.LookupEvery, &h.lookupCtr) {
		return
	}
	h.l.Debug("swrcache.lookup",
		"key", h.redact(storageKey),
		"state", state.String())
}

func (h *Hooks) RefreshScheduled(storageKey string) {
	if h.l == nil || !sample(h.opts.RefreshEvery, &h.refreshCtr) {
		return
	}
	h.l.Debug("swrcache.refresh_scheduled", "key", h.redact(storageKey))
}

func (h *Hooks) RefreshSkipped(storageKey string) {
	if h.l == nil || !sample(h.opts.RefreshEvery, &h.refreshCtr) {
		return
	}
	h.l.Info("swrcache.refresh_skipped",
		"key", h.redact(storageKey),
		"reason", "executor unavailable")
}

func (h *Hooks) RefreshFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("swrcache.refresh_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) DecodeFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("swrcache.decode_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) ProviderError(op, storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("swrcache.provider_error",
		"op", op,
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("swrcache.provider_set_rejected", "key", h.redact(storageKey))
}

// PrefixInvalidated logs the prefix unredacted; prefixes name key families,
// not individual records.
func (h *Hooks) PrefixInvalidated(prefix string, deleted int) {
	if h.l == nil {
		return
	}
	h.l.Info("swrcache.prefix_invalidated",
		"prefix", prefix,
		"deleted", deleted)
}
