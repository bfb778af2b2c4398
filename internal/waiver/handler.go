package waiver

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/audit"
	"github.com/cte-escapes/waiver-backend/internal/bookeo"
	"github.com/cte-escapes/waiver-backend/internal/middleware"
	"github.com/cte-escapes/waiver-backend/internal/models"
	"github.com/cte-escapes/waiver-backend/internal/session"
	"github.com/cte-escapes/waiver-backend/pkg/archive"
	"github.com/cte-escapes/waiver-backend/pkg/queue"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// MatchRequest is the body for POST /api/waiver/match.
type MatchRequest struct {
	FirstName      string `json:"firstName" binding:"required"`
	LastName       string `json:"lastName" binding:"required"`
	Email          string `json:"email"`
	BookingDate    string `json:"bookingDate" binding:"required"`
	MinorChecked   bool   `json:"minorChecked"`
	MinorFirstName string `json:"minorFirstName"`
	MinorLastName  string `json:"minorLastName"`
}

// Handler handles the waiver flow HTTP endpoints.
type Handler struct {
	bookeo     *bookeo.Client
	store      *session.Store
	signer     *Signer
	sink       *archive.Sink
	queue      *queue.Queue // nil when S3 archival is disabled
	audit      *audit.Recorder
	hmacSecret string
	loc        *time.Location
	logger     *zap.Logger
}

// NewHandler creates a waiver handler. displayTZ is the zone used for
// booking windows shown to clients; an unknown zone falls back to UTC.
func NewHandler(bc *bookeo.Client, store *session.Store, signer *Signer, sink *archive.Sink, q *queue.Queue, rec *audit.Recorder, hmacSecret, displayTZ string, logger *zap.Logger) *Handler {
	loc, err := time.LoadLocation(displayTZ)
	if err != nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bookeo:     bc,
		store:      store,
		signer:     signer,
		sink:       sink,
		queue:      q,
		audit:      rec,
		hmacSecret: hmacSecret,
		loc:        loc,
		logger:     logger,
	}
}

// Match handles POST /api/waiver/match: runs the identity matcher against the
// booking system and, on success, issues a handshake-keyed session.
func (h *Handler) Match(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		response.BadRequest(c, "missing session id")
		return
	}
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	date, err := parseBookingDate(req.BookingDate)
	if err != nil {
		response.BadRequest(c, "invalid booking date")
		return
	}

	start, end := searchWindow(date)
	bookings, err := h.bookeo.SearchBookings(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("booking search failed", zap.Error(err))
		response.BadGateway(c, "booking lookup failed")
		return
	}

	match, ok := matchParticipant(bookings, req.FirstName, req.LastName, h.loc)
	if !ok && req.MinorChecked {
		// The booking may be under the guardian's name rather than the
		// signer's.
		match, ok = matchParticipant(bookings, req.MinorFirstName, req.MinorLastName, h.loc)
	}
	if !ok {
		response.Forbidden(c, "no matching booking found")
		return
	}

	handshake := session.Handshake(h.hmacSecret, sessionID)
	sess := &models.Session{
		Handshake:      handshake,
		SessionID:      sessionID,
		CustomerID:     match.CustomerID,
		PersonID:       match.PersonID,
		IsParticipant:  match.IsParticipant,
		BookingNumber:  match.BookingNumber,
		BookingDate:    match.BookingDate,
		ProductName:    match.ProductName,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		MinorChecked:   req.MinorChecked,
		MinorFirstName: req.MinorFirstName,
		MinorLastName:  req.MinorLastName,
	}
	if err := h.store.Issue(c.Request.Context(), sess); err != nil {
		h.logger.Error("session issue failed", zap.Error(err))
		response.Internal(c, "could not create session")
		return
	}

	h.audit.Record(c.Request.Context(), &models.WaiverEvent{
		EventType:     models.EventSessionIssued,
		BookingNumber: match.BookingNumber,
		CustomerID:    match.CustomerID,
		PersonID:      match.PersonID,
	})
	response.OK(c, gin.H{"handshake": handshake})
}

// Session handles GET /api/waiver/session: the standalone verifier. The
// handshake middleware has already run both checks; the session fields are
// returned for client-side rendering.
func (h *Handler) Session(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		response.Unauthorized(c, "missing session")
		return
	}
	response.OK(c, sess)
}

// personID returns the id to address on the customer resource: the linked
// person when the signer is a participant, else the customer itself.
func personID(sess *models.Session) string {
	if sess.IsParticipant {
		return sess.PersonID
	}
	return sess.CustomerID
}

// qrPayload encodes the scannable check-in payload.
func qrPayload(sess *models.Session, code, sessionID string) string {
	v := url.Values{}
	v.Set("p1", sess.CustomerID)
	v.Set("p2", sess.PersonID)
	v.Set("p3", code)
	v.Set("p4", sess.Handshake)
	v.Set("p5", sessionID)
	return v.Encode()
}

func parseBookingDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
