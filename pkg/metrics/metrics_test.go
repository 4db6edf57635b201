package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(DocumentsParsed.WithLabelValues("invoice"))
	DocumentsParsed.WithLabelValues("invoice").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DocumentsParsed.WithLabelValues("invoice")))

	Lookups.WithLabelValues("ok").Inc()
	StockUpdates.WithLabelValues("patched").Inc()
	CatalogRefreshes.WithLabelValues("ok").Inc()
	LinesExtracted.Add(3)
}

func TestHandler_ServesTextFormat(t *testing.T) {
	DocumentsParsed.WithLabelValues("credit_note").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stocksync_documents_parsed_total")
}
