// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DocumentsParsed counts parsed documents by kind label (invoice, credit_note).
	DocumentsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_documents_parsed_total",
		Help: "Documents parsed, by document kind.",
	}, []string{"kind"})

	LinesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stocksync_lines_extracted_total",
		Help: "Line items extracted from parsed documents.",
	})

	Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_lookups_total",
		Help: "Product reference lookups, by outcome status.",
	}, []string{"status"})

	StockUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_stock_updates_total",
		Help: "Stock mutations, by outcome status.",
	}, []string{"status"})

	CatalogRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_catalog_refreshes_total",
		Help: "Catalog refresh attempts, by outcome.",
	}, []string{"outcome"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
