package utilization

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facilityhub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(newTestReporter(&fakeBookings{rows: []domain.BookingRequest{
		booking(1, ts(1, 9), ts(1, 12), domain.BookingApproved, domain.PaymentPaid, 1500),
	}}))
	h.now = func() time.Time { return ts(10, 8) }
	h.RegisterAdminRoutes(r.Group("/api/v1/admin"))
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandlerReport(t *testing.T) {
	r := newTestRouter()

	w := get(r, "/api/v1/admin/utilization/1?from=2025-03-01&to=2025-03-01")
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Report Report `json:"report"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Data.Report.ActiveBookings)
	assert.Equal(t, 12.5, env.Data.Report.UtilizationPercent)
}

func TestHandlerRejectsBadWindow(t *testing.T) {
	r := newTestRouter()

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/admin/utilization?from=2025-03-01").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/admin/utilization?from=2025-03-05&to=2025-03-01").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/admin/utilization/abc?from=2025-03-01&to=2025-03-01").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/admin/utilization/42?from=2025-03-01&to=2025-03-01").Code)
}

func TestHandlerReportAllAndPDF(t *testing.T) {
	r := newTestRouter()

	w := get(r, "/api/v1/admin/utilization?from=2025-03-01&to=2025-03-07")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Covered Court")

	w = get(r, "/api/v1/admin/utilization/report.pdf?from=2025-03-01&to=2025-03-07")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "utilization_2025-03-01_2025-03-07.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}
