package pdfhelper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisboulton/pdfhelper-go/internal/mockapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestBackend(t *testing.T, opts ...mockapi.Option) (*mockapi.Server, *Client) {
	t.Helper()

	backend := mockapi.New(opts...)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)
	return backend, client
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)
}

func TestNew_URLs(t *testing.T) {
	client, err := New("https://pdf.example.com/")
	require.NoError(t, err)

	assert.Equal(t, "https://pdf.example.com", client.BaseURL())
	assert.Equal(t, "wss://pdf.example.com/ws/chat", client.ChatURL())
}

func TestClient_ListDocuments(t *testing.T) {
	_, client := newTestBackend(t, mockapi.WithDocuments("doc1.pdf", "doc2.pdf"))

	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1.pdf", "doc2.pdf"}, docs)
}

func TestClient_ListDocuments_Empty(t *testing.T) {
	_, client := newTestBackend(t)

	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestClient_ListDocuments_NullData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestClient_ListDocuments_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.ListDocuments(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Body)
}

func TestClient_ListDocuments_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(url)
	require.NoError(t, err)

	_, err = client.ListDocuments(context.Background())

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "get_documents", connErr.Op)
}

func TestClient_UploadPDF(t *testing.T) {
	backend, client := newTestBackend(t)

	result, err := client.UploadPDF(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "PDF uploaded and processed successfully", result.Message)
	assert.Equal(t, []string{"report.pdf"}, backend.Documents())

	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, docs)
}

func TestClient_UploadFile(t *testing.T) {
	backend, client := newTestBackend(t)

	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))

	_, err := client.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.pdf"}, backend.Documents())
}

func TestClient_UploadFile_Missing(t *testing.T) {
	_, client := newTestBackend(t)

	_, err := client.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClient_UploadPDF_SendsHeaders(t *testing.T) {
	var gotAuth, gotType, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		f, fh, err := r.FormFile("file")
		if err == nil {
			f.Close()
			gotType = fh.Header.Get("Content-Type")
			gotName = fh.Filename
		}
		_, _ = w.Write([]byte("stored"))
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithHeader("Authorization", "Bearer token"))
	require.NoError(t, err)

	result, err := client.UploadPDF(context.Background(), `we"ird.pdf`, strings.NewReader("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, `we"ird.pdf`, gotName)
	assert.Equal(t, "stored", result.Message)
	assert.Nil(t, result.Raw)
}

func TestClient_UploadPDF_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.UploadPDF(context.Background(), "a.pdf", strings.NewReader("%PDF"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestClient_OpenChat(t *testing.T) {
	backend, client := newTestBackend(t,
		mockapi.WithDocuments("doc1.pdf"),
		mockapi.WithAnswerer(func(q string, docs []string) (string, []string) {
			return "X is a concept.", docs
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chat, err := client.OpenChat(ctx)
	require.NoError(t, err)
	defer chat.Close()

	assert.Equal(t, StateOpen, chat.State())

	stream, err := chat.Send(ctx, "What is X?")
	require.NoError(t, err)

	text, err := stream.Text(ctx)
	require.NoError(t, err)
	assert.True(t, stream.Result().Complete)
	assert.True(t, strings.HasPrefix(text, "X is a concept. "))
	assert.Equal(t, []string{"doc1.pdf"}, Citations(text))

	assert.Equal(t, []string{"What is X?"}, backend.Questions())
	require.Len(t, chat.Messages(), 2)
	assert.Equal(t, text, chat.Messages()[1].Content)
}

func TestClient_OpenChat_OutlivesDialContext(t *testing.T) {
	_, client := newTestBackend(t, mockapi.WithDocuments("doc1.pdf"))

	dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	chat, err := client.OpenChat(dialCtx)
	cancel()
	require.NoError(t, err)
	defer chat.Close()

	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()

	stream, err := chat.Send(ctx, "still there?")
	require.NoError(t, err)
	_, err = stream.Text(ctx)
	require.NoError(t, err)
	assert.True(t, stream.Result().Complete)
}

func TestClient_OpenChat_NoSourcesTimesOut(t *testing.T) {
	_, client := newTestBackend(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chat, err := client.OpenChat(ctx, WithResponseTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer chat.Close()

	stream, err := chat.Send(ctx, "anything")
	require.NoError(t, err)

	text, err := stream.Text(ctx)
	require.NoError(t, err)
	assert.True(t, stream.Result().TimedOut)
	assert.Contains(t, text, "You asked: anything")
}

func TestClient_OpenChat_DialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.OpenChat(context.Background())

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}
