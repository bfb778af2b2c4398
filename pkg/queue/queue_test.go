package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedJob() *Job {
	return &Job{
		ID:        "job-1",
		Type:      JobTypeArchiveUpload,
		Payload:   json.RawMessage(`{"filename":"Waiver-ABC123.pdf"}`),
		Attempt:   0,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEnqueueArchiveUpload(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db, nil)

	mock.Regexp().ExpectRPush(QueueArchives, `.*"type":"archive_upload".*`).SetVal(1)

	err := q.EnqueueArchiveUpload(context.Background(), ArchiveUploadPayload{
		Filename:    "Waiver-ABC123.pdf",
		ContentType: "application/pdf",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDequeue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db, nil)

	raw, err := json.Marshal(fixedJob())
	require.NoError(t, err)
	mock.ExpectBLPop(0, QueueArchives).SetVal([]string{QueueArchives, string(raw)})

	job, err := q.Dequeue(context.Background())

	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, JobTypeArchiveUpload, job.Type)
}

func TestDequeueSkipsGarbage(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db, nil)

	mock.ExpectBLPop(0, QueueArchives).SetVal([]string{QueueArchives, "{not json"})

	job, err := q.Dequeue(context.Background())

	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRetryRequeues(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db, nil)

	job := fixedJob()
	expected := *job
	expected.Attempt = 1
	raw, err := json.Marshal(&expected)
	require.NoError(t, err)
	mock.ExpectRPush(QueueArchives, raw).SetVal(1)

	require.NoError(t, q.Retry(context.Background(), job))
	assert.Equal(t, 1, job.Attempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryMovesToDLQ(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewQueue(db, nil)

	job := fixedJob()
	job.Attempt = MaxRetries - 1
	expected := *job
	expected.Attempt = MaxRetries
	raw, err := json.Marshal(&expected)
	require.NoError(t, err)
	mock.ExpectRPush(QueueDLQ, raw).SetVal(1)

	require.NoError(t, q.Retry(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}
