// Package validate implements the read-only QR validation endpoint used by
// staff scanning devices at physical check-in.
package validate

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/config"
	"github.com/cte-escapes/waiver-backend/internal/audit"
	"github.com/cte-escapes/waiver-backend/internal/bookeo"
	"github.com/cte-escapes/waiver-backend/internal/models"
	"github.com/cte-escapes/waiver-backend/internal/session"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// Handler handles GET /api/waiver/validate.
type Handler struct {
	bookeo     *bookeo.Client
	cfg        config.ValidateConfig
	hmacSecret string
	audit      *audit.Recorder
	logger     *zap.Logger
}

// NewHandler creates a validation handler.
func NewHandler(bc *bookeo.Client, cfg config.ValidateConfig, hmacSecret string, rec *audit.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{bookeo: bc, cfg: cfg, hmacSecret: hmacSecret, audit: rec, logger: logger}
}

// Validate compares the scanned confirmation code against the current value
// of the waiver field on the booking record. Read-only: no state changes.
// When configured, the scanned handshake/nonce pair is additionally
// re-verified against the session HMAC secret, which defeats codes typed into
// the booking system by hand.
func (h *Handler) Validate(c *gin.Context) {
	customerID := c.Query("customerId")
	participantID := c.Query("participantId")
	if participantID == "" {
		// Older QR payload generations used "ID".
		participantID = c.Query("ID")
	}
	claimedCode := c.Query("waiverConfirm")
	if customerID == "" || claimedCode == "" {
		response.BadRequest(c, "no code provided")
		return
	}

	doc, err := h.bookeo.GetPerson(c.Request.Context(), customerID, participantID)
	if err != nil {
		h.logger.Error("validation lookup failed", zap.Error(err), zap.String("customer_id", customerID))
		response.BadGateway(c, "booking lookup failed")
		return
	}

	// A person with no waiver field on record is a mismatch, not a fault.
	actualCode, _ := doc.CustomFieldValue(bookeo.WaiverConfirmationFieldID)
	valid := actualCode != "" && actualCode == claimedCode

	if valid && h.cfg.RequireHandshake {
		valid = session.VerifyHandshake(h.hmacSecret, c.Query("sessionId"), c.Query("userHash"))
	}

	eventType := models.EventWaiverValidated
	if !valid {
		eventType = models.EventValidationFailed
	}
	h.audit.Record(c.Request.Context(), &models.WaiverEvent{
		EventType:        eventType,
		CustomerID:       customerID,
		PersonID:         participantID,
		ConfirmationCode: claimedCode,
	})

	if !valid {
		response.Unauthorized(c, "invalid code")
		return
	}
	response.OK(c, gin.H{"message": "valid code"})
}
