package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/internal/models"
)

var (
	// ErrNotFound means no live session exists for the handshake: either it
	// was never issued, its TTL elapsed, or it was finalized.
	ErrNotFound = errors.New("session not found")
	// ErrIllegalTransition means the requested lifecycle step is not legal
	// from the session's current state.
	ErrIllegalTransition = errors.New("illegal session transition")
)

const keyPrefix = "session:"

// Key returns the Redis key for a handshake.
func Key(handshake string) string {
	return keyPrefix + handshake
}

// Store persists waiver sessions as Redis hashes with a fixed TTL. A session
// exists in the store iff it has neither expired nor been finalized; the
// store is the single source of cross-request state.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a session store. TTL applies to every issued session.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, ttl: ttl, logger: logger}
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue writes a fresh session record and arms its expiry. The caller must
// not hand the handshake to a client unless Issue returned nil: a token
// without a backing record would fail every verifier check, and a record
// without a TTL would never expire.
func (s *Store) Issue(ctx context.Context, sess *models.Session) error {
	sess.State = models.SessionIssued
	key := Key(sess.Handshake)
	if err := s.client.HSet(ctx, key, issuePairs(sess)...).Err(); err != nil {
		return fmt.Errorf("session hset: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			s.logger.Error("orphaned session record without TTL",
				zap.Error(delErr), zap.String("session_id", sess.SessionID))
		}
		return fmt.Errorf("session expire: %w", err)
	}
	return nil
}

// Get loads the session for a handshake. Absence, including TTL expiry,
// returns ErrNotFound.
func (s *Store) Get(ctx context.Context, handshake string) (*models.Session, error) {
	cmd := s.client.HGetAll(ctx, Key(handshake))
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("session hgetall: %w", err)
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrNotFound
	}
	var sess models.Session
	if err := cmd.Scan(&sess); err != nil {
		return nil, fmt.Errorf("session scan: %w", err)
	}
	return &sess, nil
}

// MarkSigned records the signing artifacts on a live session. The session
// stays alive and keeps its remaining TTL; only finalization or expiry ends
// it.
func (s *Store) MarkSigned(ctx context.Context, sess *models.Session, rawSignature, confirmationHash, confirmationCode string) error {
	if !sess.State.CanTransition(models.SessionSigned) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, sess.State, models.SessionSigned)
	}
	err := s.client.HSet(ctx, Key(sess.Handshake),
		"state", string(models.SessionSigned),
		"rawSignature", rawSignature,
		"confirmationHash", confirmationHash,
		"confirmationCode", confirmationCode,
	).Err()
	if err != nil {
		return fmt.Errorf("session hset signed: %w", err)
	}
	sess.State = models.SessionSigned
	sess.RawSignature = rawSignature
	sess.ConfirmationHash = confirmationHash
	sess.ConfirmationCode = confirmationCode
	return nil
}

// Finalize deletes the session record, the terminal transition that blocks
// resubmission under the same handshake. Deleting an already absent key is
// not an error; the delete is the idempotency boundary for finalizer retries.
func (s *Store) Finalize(ctx context.Context, sess *models.Session) error {
	if !sess.State.CanTransition(models.SessionFinalized) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, sess.State, models.SessionFinalized)
	}
	if err := s.client.Del(ctx, Key(sess.Handshake)).Err(); err != nil {
		return fmt.Errorf("session del: %w", err)
	}
	sess.State = models.SessionFinalized
	return nil
}

// issuePairs flattens a session into field-value pairs in a fixed order.
func issuePairs(sess *models.Session) []interface{} {
	return []interface{}{
		"handshake", sess.Handshake,
		"sessionId", sess.SessionID,
		"state", string(sess.State),
		"customerId", sess.CustomerID,
		"personId", sess.PersonID,
		"isParticipant", strconv.FormatBool(sess.IsParticipant),
		"bookingNumber", sess.BookingNumber,
		"bookingDate", sess.BookingDate,
		"productName", sess.ProductName,
		"firstName", sess.FirstName,
		"lastName", sess.LastName,
		"email", sess.Email,
		"minorChecked", strconv.FormatBool(sess.MinorChecked),
		"minorFirstName", sess.MinorFirstName,
		"minorLastName", sess.MinorLastName,
	}
}
