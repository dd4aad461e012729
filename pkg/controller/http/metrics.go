package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "jobrisk"

// Metrics holds the Prometheus collectors of the inference server.
// Each Metrics has its own registry so tests can create as many as they need.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	reloads     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "predictions_total",
			Help:      "Number of predictions served, by predicted class.",
		}, []string{"class_label"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "prediction_errors_total",
			Help:      "Number of failed prediction requests, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "model_reloads_total",
			Help:      "Number of model reload checks, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.predictions,
		m.errors,
		m.duration,
		m.reloads,
	)
	return m
}

// ObserveReload counts a reload check. It matches worker.ReloadHook.
func (m *Metrics) ObserveReload(changed bool, err error) {
	switch {
	case err != nil:
		m.reloads.WithLabelValues("error").Inc()
	case changed:
		m.reloads.WithLabelValues("changed").Inc()
	default:
		m.reloads.WithLabelValues("unchanged").Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) registerModel(p Predictor) {
	m.registry.MustRegister(&modelCollector{predictor: p})
}

// modelCollector exports the loaded model's identity and accuracy at scrape time
type modelCollector struct {
	predictor Predictor
}

var (
	modelInfoDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "model", "info"),
		"Currently served model; the value is always 1.",
		[]string{"version"}, nil)
	modelAccuracyDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "model", "accuracy"),
		"Evaluation accuracy recorded when the served model was trained.",
		nil, nil)
	modelReadyDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "model", "ready"),
		"1 when a model is loaded, 0 otherwise.",
		nil, nil)
)

func (c *modelCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- modelInfoDesc
	ch <- modelAccuracyDesc
	ch <- modelReadyDesc
}

func (c *modelCollector) Collect(ch chan<- prometheus.Metric) {
	info, err := c.predictor.Info()
	if err != nil {
		ch <- prometheus.MustNewConstMetric(modelReadyDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(modelReadyDesc, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(modelInfoDesc, prometheus.GaugeValue, 1, info.Version.String())
	ch <- prometheus.MustNewConstMetric(modelAccuracyDesc, prometheus.GaugeValue, info.Metrics.Accuracy)
}
