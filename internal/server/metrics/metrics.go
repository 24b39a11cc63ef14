// Package metrics holds the Prometheus collectors for vaultboard. Every
// method is nil-safe so components can run without metrics in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Policy decisions by action, outcome and reason
	AccessDecisions *prometheus.CounterVec

	// Sensitive reads that returned stored text instead of plaintext
	DecryptFallbacks *prometheus.CounterVec

	// Audit pipeline: enqueued, dropped, written, failed
	AuditEvents *prometheus.CounterVec

	// Entries flagged by the last expiry sweep, by status
	ExpiryFlagged *prometheus.GaugeVec

	// Principal cache lookups: hit, miss, error
	CacheLookups *prometheus.CounterVec

	// Unary RPC latency by method and status code
	RPCDuration *prometheus.HistogramVec

	BlobUploadBytes prometheus.Histogram
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultboard_access_decisions_total",
			Help: "Access policy decisions by action, outcome and reason",
		}, []string{"action", "allowed", "reason"}),

		DecryptFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultboard_decrypt_fallbacks_total",
			Help: "Sensitive reads served as stored text because decryption was not possible",
		}, []string{"reason"}),

		AuditEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultboard_audit_events_total",
			Help: "Audit events by pipeline outcome",
		}, []string{"outcome"}),

		ExpiryFlagged: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vaultboard_expiry_flagged_entries",
			Help: "Entries flagged by the most recent expiry sweep",
		}, []string{"status"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultboard_principal_cache_lookups_total",
			Help: "Principal cache lookups by result",
		}, []string{"result"}),

		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultboard_rpc_duration_seconds",
			Help:    "Unary RPC latency by method and status code",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "code"}),

		BlobUploadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vaultboard_blob_upload_bytes",
			Help:    "Size of accepted file attachments",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

func (m *Metrics) ObserveDecision(action string, allowed bool, reason string) {
	if m != nil {
		m.AccessDecisions.WithLabelValues(action, strconv.FormatBool(allowed), reason).Inc()
	}
}

func (m *Metrics) IncDecryptFallback(reason string) {
	if m != nil {
		m.DecryptFallbacks.WithLabelValues(reason).Inc()
	}
}

// AddAuditEvents counts n audit events with the given outcome.
func (m *Metrics) AddAuditEvents(outcome string, n int) {
	if m != nil && n > 0 {
		m.AuditEvents.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *Metrics) SetExpiryFlagged(status string, n int) {
	if m != nil {
		m.ExpiryFlagged.WithLabelValues(status).Set(float64(n))
	}
}

func (m *Metrics) IncCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	if m != nil {
		m.RPCDuration.WithLabelValues(method, code).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveBlobUpload(size int64) {
	if m != nil {
		m.BlobUploadBytes.Observe(float64(size))
	}
}
