// Package worker runs the background archive-copy loop: dequeued waiver
// documents are uploaded to the S3 bucket as an off-site copy of the
// webhook archive.
package worker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/pkg/queue"
	"github.com/cte-escapes/waiver-backend/pkg/storage"
)

// ArchiveProcessor processes archive-copy jobs. The webhook sink remains the
// source of truth; this copy never gates session finalization.
type ArchiveProcessor struct {
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewArchiveProcessor creates an archive-copy processor.
func NewArchiveProcessor(s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ArchiveProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveProcessor{s3: s3, queue: q, logger: logger}
}

// Process executes one archive-copy job.
func (p *ArchiveProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeArchiveUpload {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ArchiveUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	doc, err := base64.StdEncoding.DecodeString(payload.Document)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	key := storage.WaiverKey(job.CreatedAt, payload.Filename)
	url, err := p.s3.Upload(ctx, key, payload.ContentType, bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	p.logger.Info("archive copy uploaded",
		zap.String("job_id", job.ID),
		zap.String("booking_number", payload.BookingNumber),
		zap.String("confirmation_code", payload.ConfirmationCode),
		zap.String("s3_url", url),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ArchiveProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("archive worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
