package metrics

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint8

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricReissueSuccess
	MetricReissueFailure
	MetricReissueMismatch
	MetricLogoutSuccess
	MetricLogoutFailure
	MetricRevokedTokenHit
	MetricSessionCreated
	MetricSessionInvalidated

	MetricIDCount
)

// Config controls metric collection. When Enabled is false every operation
// is a no-op.
type Config struct {
	Enabled bool
}

// Counter slots are padded to 64 bytes so adjacent counters never share a
// cache line under concurrent increments.
type slot struct {
	value atomic.Uint64
	_     [56]byte
}

// Metrics holds the engine's counters.
type Metrics struct {
	enabled bool
	slots   [MetricIDCount]slot
}

// New creates a [Metrics] instance configured by cfg.
func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.slots[id].value.Add(1)
}

// Get returns the current value of the counter for id.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return m.slots[id].value.Load()
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies every counter into a fresh map. The copy is not atomic
// across counters; each individual value is a consistent atomic load.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = m.slots[id].value.Load()
	}
	return snap
}
