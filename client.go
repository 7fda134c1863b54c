package pdfhelper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of a failed response is kept in an APIError.
const maxErrorBody = 4 << 10

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Client talks to the backend's HTTP endpoints and opens chat sessions.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL string
	chatURL string
	cfg     clientConfig
}

// New creates a Client for the backend at baseURL, e.g.
// "http://localhost:8000". Use BaseURLFromEnv to honour PDFHELPER_API_URL.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = defaultHTTPClient()
	}

	chatURL, err := ChatURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		chatURL: chatURL,
		cfg:     cfg,
	}, nil
}

// defaultHTTPClient returns a pooled client. No overall timeout is set so
// large uploads are bounded only by the caller's context.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChatURL returns the WebSocket chat endpoint derived from the base URL.
func (c *Client) ChatURL() string {
	return c.chatURL
}

// ListDocuments fetches the names of all uploaded documents.
// An empty list is returned as a non-nil empty slice.
func (c *Client) ListDocuments(ctx context.Context) ([]string, error) {
	u, err := endpointURL(c.baseURL, pathDocuments)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "get_documents")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list documentList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("pdfhelper: decode document list: %w", err)
	}
	if list.Data == nil {
		list.Data = []string{}
	}

	c.cfg.logger.Debug().Int("count", len(list.Data)).Msg("listed documents")
	return list.Data, nil
}

// UploadFile uploads the PDF at path.
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.UploadPDF(ctx, filepath.Base(path), f)
}

// UploadPDF uploads a PDF read from r as a multipart form with the field
// "file". The body is streamed; r is read until EOF.
func (c *Client) UploadPDF(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	u, err := endpointURL(c.baseURL, pathUpload)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeFilePart(mw, filename, r))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	c.cfg.logger.Debug().Str("filename", filename).Msg("uploading document")

	resp, err := c.do(req, "upload_pdf")
	if err != nil {
		pr.Close()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Op: "upload_pdf", URL: u, Err: err}
	}

	result := &UploadResult{}
	if err := json.Unmarshal(body, &result.Raw); err == nil {
		if msg, ok := result.Raw["message"].(string); ok {
			result.Message = msg
		}
	} else {
		result.Message = strings.TrimSpace(string(body))
	}

	c.cfg.logger.Info().Str("filename", filename).Msg("uploaded document")
	return result, nil
}

func writeFilePart(mw *multipart.Writer, filename string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", "application/pdf")

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

// OpenChat dials the chat endpoint and returns a session reading from it.
// ctx bounds the dial only; the session lives until Close.
// The session inherits the client's logger unless WithSessionLogger is given.
func (c *Client) OpenChat(ctx context.Context, opts ...SessionOption) (*ChatSession, error) {
	transport, err := Dial(ctx, c.chatURL, &DialOptions{
		HTTPHeader: c.cfg.header,
		HTTPClient: c.cfg.httpClient,
	})
	if err != nil {
		return nil, err
	}

	c.cfg.logger.Debug().Str("url", c.chatURL).Msg("chat connection open")

	opts = append([]SessionOption{WithSessionLogger(c.cfg.logger)}, opts...)
	return NewChatSession(context.WithoutCancel(ctx), transport, opts...), nil
}

// do sends req and maps transport failures and non-2xx replies to errors.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	for k, vs := range c.cfg.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.cfg.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Op: op, URL: req.URL.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.cfg.logger.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Msg("backend returned an error")
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp, nil
}
