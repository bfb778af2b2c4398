// Package archive posts finalized waivers to the spreadsheet-backed archival
// webhook.
package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/config"
)

// ErrSinkRejected means the sink answered but reported a failure in its
// result field. The document was not archived.
var ErrSinkRejected = errors.New("archive sink rejected submission")

// sinkResult is the sink's JSON response body.
type sinkResult struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Sink is the archival webhook client. The sink accepts a single multipart
// POST carrying the base64 document, a filename, the sink's own credential
// pair and the full session field set.
type Sink struct {
	url       string
	publicKey string
	hash      string
	http      *http.Client
	logger    *zap.Logger
}

// NewSink creates an archival sink client. A nil httpClient gets one with the
// configured timeout.
func NewSink(cfg config.ArchiveConfig, httpClient *http.Client, logger *zap.Logger) *Sink {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		url:       cfg.WebhookURL,
		publicKey: cfg.PublicKey,
		hash:      cfg.Hash,
		http:      httpClient,
		logger:    logger,
	}
}

// Submit archives one signed document with its session fields. Returns nil
// only when the sink confirmed success; any other outcome leaves the caller's
// state untouched and retryable.
func (s *Sink) Submit(ctx context.Context, doc []byte, filename string, fields map[string]string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("pdfString", base64.StdEncoding.EncodeToString(doc)); err != nil {
		return fmt.Errorf("archive: write document: %w", err)
	}
	if err := w.WriteField("filename", filename); err != nil {
		return fmt.Errorf("archive: write filename: %w", err)
	}
	if err := w.WriteField("publicKey", s.publicKey); err != nil {
		return fmt.Errorf("archive: write credentials: %w", err)
	}
	if err := w.WriteField("hash", s.hash); err != nil {
		return fmt.Errorf("archive: write credentials: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("archive: write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &buf)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("archive: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("archive: unexpected status %d", resp.StatusCode)
	}

	var result sinkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("archive: decode response: %w", err)
	}
	if result.Result == "error" {
		s.logger.Warn("sink reported error", zap.String("detail", result.Error))
		return fmt.Errorf("%w: %s", ErrSinkRejected, result.Error)
	}
	return nil
}
