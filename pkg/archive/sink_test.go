package archive

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cte-escapes/waiver-backend/config"
)

func testSink(srv *httptest.Server) *Sink {
	return NewSink(config.ArchiveConfig{
		WebhookURL: srv.URL,
		PublicKey:  "pub-key",
		Hash:       "cred-hash",
	}, srv.Client(), nil)
}

func TestSinkSubmit(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(16<<20))
		form = r.MultipartForm.Value
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer srv.Close()

	doc := []byte("%PDF-1.4 fake")
	fields := map[string]string{
		"bookingNumber":    "BK1",
		"confirmationCode": "A1B2C3",
	}
	err := testSink(srv).Submit(context.Background(), doc, "Waiver-A1B2C3.pdf", fields)

	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(doc), form["pdfString"][0])
	assert.Equal(t, "Waiver-A1B2C3.pdf", form["filename"][0])
	assert.Equal(t, "pub-key", form["publicKey"][0])
	assert.Equal(t, "cred-hash", form["hash"][0])
	assert.Equal(t, "BK1", form["bookingNumber"][0])
	assert.Equal(t, "A1B2C3", form["confirmationCode"][0])
}

func TestSinkSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"error","error":"quota exceeded"}`))
	}))
	defer srv.Close()

	err := testSink(srv).Submit(context.Background(), []byte("doc"), "f.pdf", nil)

	require.ErrorIs(t, err, ErrSinkRejected)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSinkSubmitBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := testSink(srv).Submit(context.Background(), []byte("doc"), "f.pdf", nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSinkRejected)
}
