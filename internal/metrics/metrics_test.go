package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentLabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /loncheras/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Instrument(mux)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/loncheras/{id}", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/loncheras/42", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/loncheras/{id}", "418"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(lunchboxTransitions.WithLabelValues("Confirmada"))
	RecordTransition("Confirmada")
	if got := testutil.ToFloat64(lunchboxTransitions.WithLabelValues("Confirmada")); got-before != 1 {
		t.Errorf("transition delta = %v, want 1", got-before)
	}
}

func TestRecordArchivedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(archivedLunchboxes)
	RecordArchived(0)
	RecordArchived(3)
	if got := testutil.ToFloat64(archivedLunchboxes); got-before != 3 {
		t.Errorf("archived delta = %v, want 3", got-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordCatalogChange("Creado")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "nutribox_catalog_changes_total") {
		t.Error("expected catalog counter in exposition")
	}
}
