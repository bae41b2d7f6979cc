package token

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records credential acquisitions and refreshes by strategy.
type Metrics struct {
	AcquisitionsTotal   *prometheus.CounterVec
	AcquisitionDuration *prometheus.HistogramVec
	RefreshesTotal      *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance and registers the collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		AcquisitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediumroast_credential_acquisitions_total",
				Help: "Total number of credential acquisitions by auth type and outcome.",
			},
			[]string{"auth_type", "outcome"},
		),
		AcquisitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediumroast_credential_acquisition_duration_seconds",
				Help:    "Duration of credential acquisitions by auth type, including device-flow polling.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"auth_type"},
		),
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediumroast_credential_refreshes_total",
				Help: "Total number of expired credentials re-acquired by auth type and outcome.",
			},
			[]string{"auth_type", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.AcquisitionsTotal, m.AcquisitionDuration, m.RefreshesTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeAcquisition(authType AuthType, started time.Time, err error) {
	if m == nil {
		return
	}
	m.AcquisitionsTotal.WithLabelValues(string(authType), outcome(err)).Inc()
	m.AcquisitionDuration.WithLabelValues(string(authType)).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeRefresh(authType AuthType, err error) {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(string(authType), outcome(err)).Inc()
}

// outcome maps an error onto its failure class label
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrFile):
		return "file_error"
	case errors.Is(err, ErrSigning):
		return "signing_error"
	case errors.Is(err, ErrConfig):
		return "config_error"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "error"
	}
}
