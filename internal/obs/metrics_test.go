package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/blobs/{containerName}/{folderName}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Instrument(mux)

	const pattern = "GET /api/blobs/{containerName}/{folderName}"
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "200"))

	// разные блобы — одна метка
	for _, p := range []string{
		"/api/blobs/cph-container3/Patient_Data_001",
		"/api/blobs/cph-container3/Patient_Data_002",
	} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "200"))
	if after-before != 2 {
		t.Fatalf("requests under pattern label = %v, want 2", after-before)
	}
}

func TestInstrumentUnmatchedRoute(t *testing.T) {
	h := Instrument(http.NewServeMux())

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))

	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))
	if after-before != 1 {
		t.Fatalf("unmatched requests = %v, want 1", after-before)
	}
}
