package waiver

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/middleware"
	"github.com/cte-escapes/waiver-backend/internal/models"
	"github.com/cte-escapes/waiver-backend/pkg/archive"
	"github.com/cte-escapes/waiver-backend/pkg/queue"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// maxWaiverDocSize caps the accepted signed document (8 MiB).
const maxWaiverDocSize = 8 << 20

// Submit handles POST /api/waiver/submit: forwards the signed document plus
// the accumulated session fields to the archival sink, then deletes the
// session. The delete happens only after a confirmed archive success, so a
// sink failure leaves the session intact for a safe client retry; the delete
// itself is the idempotency boundary against resubmission.
func (h *Handler) Submit(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		response.Unauthorized(c, "missing session")
		return
	}
	if !sess.State.CanTransition(models.SessionFinalized) {
		response.Forbidden(c, "waiver has not been signed")
		return
	}

	doc, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWaiverDocSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.TooLarge(c, "document too large")
			return
		}
		response.BadRequest(c, "missing document body")
		return
	}
	if len(doc) == 0 {
		response.BadRequest(c, "missing document body")
		return
	}

	ctx := c.Request.Context()
	filename := "Waiver-" + sess.ConfirmationCode + ".pdf"
	if err := h.sink.Submit(ctx, doc, filename, sess.Fields()); err != nil {
		if errors.Is(err, archive.ErrSinkRejected) {
			h.logger.Error("archive sink rejected waiver", zap.Error(err),
				zap.String("booking_number", sess.BookingNumber))
		} else {
			h.logger.Error("archive post failed", zap.Error(err),
				zap.String("booking_number", sess.BookingNumber))
		}
		response.Internal(c, "archival failed")
		return
	}

	if err := h.store.Finalize(ctx, sess); err != nil {
		// Archived but still live; a retry re-archives the same document,
		// which the sink tolerates.
		h.logger.Error("session delete failed after archive", zap.Error(err),
			zap.String("booking_number", sess.BookingNumber))
		response.Internal(c, "could not finalize session")
		return
	}

	h.audit.Record(ctx, &models.WaiverEvent{
		EventType:        models.EventWaiverFinalized,
		BookingNumber:    sess.BookingNumber,
		CustomerID:       sess.CustomerID,
		PersonID:         sess.PersonID,
		ConfirmationCode: sess.ConfirmationCode,
	})

	if h.queue != nil {
		payload := queue.ArchiveUploadPayload{
			Filename:         filename,
			ContentType:      "application/pdf",
			Document:         base64.StdEncoding.EncodeToString(doc),
			ConfirmationCode: sess.ConfirmationCode,
			BookingNumber:    sess.BookingNumber,
		}
		if err := h.queue.EnqueueArchiveUpload(ctx, payload); err != nil {
			// The webhook archive already succeeded; the S3 copy is
			// best-effort.
			h.logger.Warn("archive copy enqueue failed", zap.Error(err))
		}
	}

	response.OK(c, gin.H{"message": "success"})
}
