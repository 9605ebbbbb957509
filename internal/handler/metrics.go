package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/msomdec/contact-directory/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	usersDesc = prometheus.NewDesc(
		"contactdir_users",
		"Number of registered users.",
		nil, nil,
	)
	onlineDesc = prometheus.NewDesc(
		"contactdir_users_online",
		"Number of users currently marked online.",
		nil, nil,
	)
	sessionsDesc = prometheus.NewDesc(
		"contactdir_sessions_live",
		"Number of live session tokens.",
		nil, nil,
	)
)

// statsCollector reads table counts from the auth service on every scrape.
type statsCollector struct {
	auth *service.AuthService
}

func (c statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- usersDesc
	ch <- onlineDesc
	ch <- sessionsDesc
}

func (c statsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.auth.Stats(context.Background())
	if err != nil {
		slog.Error("collect metrics", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(usersDesc, prometheus.GaugeValue, float64(stats.Users))
	ch <- prometheus.MustNewConstMetric(onlineDesc, prometheus.GaugeValue, float64(stats.Online))
	ch <- prometheus.MustNewConstMetric(sessionsDesc, prometheus.GaugeValue, float64(stats.Sessions))
}

// NewMetricsHandler returns a Prometheus exposition handler backed by its
// own registry.
func NewMetricsHandler(auth *service.AuthService) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		statsCollector{auth: auth},
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
