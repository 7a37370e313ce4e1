package authcore

import internalmetrics "github.com/rateye/authcore/internal/metrics"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricRegisterSuccess    = internalmetrics.MetricRegisterSuccess
	MetricRegisterDuplicate  = internalmetrics.MetricRegisterDuplicate
	MetricLoginSuccess       = internalmetrics.MetricLoginSuccess
	MetricLoginFailure       = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited   = internalmetrics.MetricLoginRateLimited
	MetricReissueSuccess     = internalmetrics.MetricReissueSuccess
	MetricReissueFailure     = internalmetrics.MetricReissueFailure
	MetricReissueMismatch    = internalmetrics.MetricReissueMismatch
	MetricLogoutSuccess      = internalmetrics.MetricLogoutSuccess
	MetricLogoutFailure      = internalmetrics.MetricLogoutFailure
	MetricRevokedTokenHit    = internalmetrics.MetricRevokedTokenHit
	MetricSessionCreated     = internalmetrics.MetricSessionCreated
	MetricSessionInvalidated = internalmetrics.MetricSessionInvalidated
)

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}
