package waiver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/bookeo"
	"github.com/cte-escapes/waiver-backend/internal/middleware"
	"github.com/cte-escapes/waiver-backend/internal/models"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// SignRequest is the body for POST /api/waiver/sign.
type SignRequest struct {
	SVGSignature string `json:"svgSignature" binding:"required"`
}

// Sign handles POST /api/waiver/sign: signs the signature artwork, writes the
// confirmation code into the booking record, and records the artifacts on the
// session. The booking update and the session update are treated as a unit:
// when either fails the request reports failure and the flow does not
// advance.
func (h *Handler) Sign(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		response.Unauthorized(c, "missing session")
		return
	}
	if !sess.State.CanTransition(models.SessionSigned) {
		response.Forbidden(c, "waiver cannot be signed in its current state")
		return
	}
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rawSignature, confirmationHash, confirmationCode, err := h.signer.Sign(req.SVGSignature)
	if err != nil {
		h.logger.Error("signing failed", zap.Error(err))
		response.Internal(c, "signing failed")
		return
	}

	ctx := c.Request.Context()
	doc, err := h.bookeo.GetPerson(ctx, sess.CustomerID, personID(sess))
	if err != nil {
		h.logger.Error("booking read failed", zap.Error(err), zap.String("customer_id", sess.CustomerID))
		response.BadGateway(c, "booking lookup failed")
		return
	}
	if err := doc.SetCustomField(bookeo.WaiverConfirmationFieldID, confirmationCode); err != nil {
		h.logger.Error("custom field update failed", zap.Error(err))
		response.Internal(c, "booking update failed")
		return
	}
	if err := h.bookeo.UpdatePerson(ctx, sess.CustomerID, personID(sess), doc); err != nil {
		h.logger.Error("booking write failed", zap.Error(err), zap.String("customer_id", sess.CustomerID))
		response.BadGateway(c, "booking update failed")
		return
	}

	if err := h.store.MarkSigned(ctx, sess, rawSignature, confirmationHash, confirmationCode); err != nil {
		h.logger.Error("session update failed after booking write", zap.Error(err),
			zap.String("booking_number", sess.BookingNumber))
		response.Internal(c, "could not update session")
		return
	}

	h.audit.Record(ctx, &models.WaiverEvent{
		EventType:        models.EventWaiverSigned,
		BookingNumber:    sess.BookingNumber,
		CustomerID:       sess.CustomerID,
		PersonID:         sess.PersonID,
		ConfirmationCode: confirmationCode,
	})

	response.OK(c, gin.H{
		"session":          sess,
		"confirmationCode": confirmationCode,
		"qrCode":           qrPayload(sess, confirmationCode, sess.SessionID),
	})
}
