// Package analytics serves booking revenue data for the staff dashboard.
package analytics

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/audit"
	"github.com/cte-escapes/waiver-backend/internal/bookeo"
	"github.com/cte-escapes/waiver-backend/pkg/response"
	"github.com/cte-escapes/waiver-backend/pkg/storage"
)

// RevenueEntry is one booking projected for the revenue chart.
type RevenueEntry struct {
	ID           string    `json:"id"`
	CreationDate time.Time `json:"creationDate"`
	Amount       string    `json:"amount"`
	IsCanceled   bool      `json:"isCanceled"`
}

// Handler handles the analytics HTTP endpoints.
type Handler struct {
	bookeo *bookeo.Client
	audit  *audit.Recorder
	s3     *storage.S3 // nil when archive copies are disabled
	logger *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(bc *bookeo.Client, rec *audit.Recorder, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{bookeo: bc, audit: rec, s3: s3, logger: logger}
}

// Bookings handles GET /api/analytics/bookings: revenue entries for the
// requested window, canceled bookings included.
func (h *Handler) Bookings(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("startTime"))
	if err != nil {
		response.BadRequest(c, "missing or invalid startTime")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("endTime"))
	if err != nil {
		response.BadRequest(c, "missing or invalid endTime")
		return
	}

	bookings, err := h.bookeo.ListBookings(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("revenue listing failed", zap.Error(err))
		response.BadGateway(c, "failed to fetch bookings")
		return
	}

	entries := make([]RevenueEntry, 0, len(bookings))
	for _, b := range bookings {
		entry := RevenueEntry{
			ID:           b.EventID,
			CreationDate: b.CreationTime,
			IsCanceled:   b.Canceled,
		}
		if b.Price != nil {
			entry.Amount = b.Price.TotalNet.Amount
		}
		entries = append(entries, entry)
	}
	response.OK(c, entries)
}

// WaiverDownload handles GET /api/analytics/waivers/download: a short-lived
// pre-signed URL for an archived waiver copy. Copies are keyed by filename
// under a year/month prefix; month defaults to the current one.
func (h *Handler) WaiverDownload(c *gin.Context) {
	if h.s3 == nil {
		response.NotFound(c, "archive copies not configured")
		return
	}
	filename := c.Query("filename")
	if filename == "" {
		response.BadRequest(c, "missing filename")
		return
	}
	archivedAt := time.Now()
	if m := c.Query("month"); m != "" {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			response.BadRequest(c, "invalid month, expected YYYY-MM")
			return
		}
		archivedAt = t
	}

	url, err := h.s3.PresignedDownloadURL(c.Request.Context(), storage.WaiverKey(archivedAt, filename))
	if err != nil {
		h.logger.Error("presign failed", zap.Error(err), zap.String("filename", filename))
		response.Internal(c, "could not create download link")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// Events handles GET /api/analytics/events: the most recent waiver lifecycle
// events from the audit trail.
func (h *Handler) Events(c *gin.Context) {
	events, err := h.audit.Recent(c.Request.Context(), 100)
	if err != nil {
		h.logger.Error("audit query failed", zap.Error(err))
		response.Internal(c, "failed to fetch events")
		return
	}
	response.OK(c, events)
}
