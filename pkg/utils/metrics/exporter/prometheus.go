package exporter

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	hostname, _ = os.Hostname()
	registry    = prometheus.NewRegistry()
)

func GetCounter(namespace, metricName string, labelNames []string) *prometheus.CounterVec {
	options := prometheus.CounterOpts{
		Namespace: namespace,
		Name:      metricName,
		ConstLabels: prometheus.Labels{
			"hostname": hostname,
		},
	}
	counter := prometheus.NewCounterVec(options, labelNames)
	registry.MustRegister(counter)

	return counter
}

func GetGauge(namespace, metricName string, labelNames []string) *prometheus.GaugeVec {
	options := prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      metricName,
		ConstLabels: prometheus.Labels{
			"hostname": hostname,
		},
	}
	gauge := prometheus.NewGaugeVec(options, labelNames)
	registry.MustRegister(gauge)

	return gauge
}

func GetHistogram(namespace, metricName string, labelNames []string) *prometheus.HistogramVec {
	options := prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      metricName,
		ConstLabels: prometheus.Labels{
			"hostname": hostname,
		},
		Buckets: []float64{10, 25, 50, 100, 200, 300, 400, 500, 750, 1000, 2000, 5000, 10000}, // expressed in units/MS not as a percentage
	}
	histogram := prometheus.NewHistogramVec(options, labelNames)
	registry.MustRegister(histogram)

	return histogram
}

// Handler exposes the registry for mounting on the web router.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
