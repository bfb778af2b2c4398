package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cte-escapes/waiver-backend/config"
	"github.com/cte-escapes/waiver-backend/internal/bookeo"
	"github.com/cte-escapes/waiver-backend/pkg/storage"
)

func analyticsRouter(t *testing.T, bookingsJSON string) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bookingsJSON))
	}))
	t.Cleanup(srv.Close)

	client := bookeo.NewClient(config.BookeoConfig{BaseURL: srv.URL}, srv.Client(), nil)
	h := NewHandler(client, nil, nil, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bookings", h.Bookings)
	r.GET("/events", h.Events)
	r.GET("/waivers/download", h.WaiverDownload)
	return r
}

func TestBookingsProjection(t *testing.T) {
	r := analyticsRouter(t, `{"data":[
		{"eventId":"E1","creationTime":"2025-02-01T10:00:00Z","canceled":false,
		 "price":{"totalNet":{"amount":"120.00","currency":"USD"}}},
		{"eventId":"E2","creationTime":"2025-02-02T11:00:00Z","canceled":true}
	]}`)

	req := httptest.NewRequest(http.MethodGet,
		"/bookings?startTime=2025-02-01T00:00:00Z&endTime=2025-02-28T00:00:00Z", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool           `json:"success"`
		Data    []RevenueEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "E1", body.Data[0].ID)
	assert.Equal(t, "120.00", body.Data[0].Amount)
	assert.False(t, body.Data[0].IsCanceled)
	assert.Equal(t, "E2", body.Data[1].ID)
	assert.Empty(t, body.Data[1].Amount) // no price on canceled booking
	assert.True(t, body.Data[1].IsCanceled)
}

func TestBookingsBadWindow(t *testing.T) {
	r := analyticsRouter(t, `{"data":[]}`)

	req := httptest.NewRequest(http.MethodGet, "/bookings?startTime=yesterday", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "startTime")
}

func TestWaiverDownloadDisabled(t *testing.T) {
	r := analyticsRouter(t, `{}`)

	req := httptest.NewRequest(http.MethodGet, "/waivers/download?filename=Waiver-ABC123.pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "archive copies not configured")
}

func TestWaiverDownload(t *testing.T) {
	s3, err := storage.NewS3(context.Background(), storage.S3Config{
		Region:          "us-east-1",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		WaiverBucket:    "waiver-archive",
	}, nil)
	require.NoError(t, err)

	h := NewHandler(nil, nil, s3, nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/waivers/download", h.WaiverDownload)

	req := httptest.NewRequest(http.MethodGet,
		"/waivers/download?filename=Waiver-ABC123.pdf&month=2025-03", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Data.URL, "waiver-archive")
	assert.Contains(t, body.Data.URL, "waivers/2025/03/Waiver-ABC123.pdf")
	assert.Contains(t, body.Data.URL, "X-Amz-Signature")

	// Parameter validation.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/waivers/download", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/waivers/download?filename=f.pdf&month=March", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsWithAuditDisabled(t *testing.T) {
	r := analyticsRouter(t, `{}`)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
