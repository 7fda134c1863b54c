// Package mockapi is an in-process stand-in for the PDF question-answering
// backend. It serves the same three endpoints and streams answers the way the
// real server does: one frame per word, then a "Source PDF" trailer listing
// the documents used.
package mockapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Frame is one message written on the chat socket.
type Frame struct {
	EventType string `json:"event_type"`
	Data      string `json:"data"`
}

// Answerer produces the answer text and the cited documents for a question.
// Returning no sources makes the server omit the trailer, so clients never see
// a completion marker for that answer.
type Answerer func(question string, documents []string) (answer string, sources []string)

// Server is a fake backend.
type Server struct {
	answer        Answerer
	fragmentDelay time.Duration
	logger        zerolog.Logger
	upgrader      websocket.Upgrader
	router        *gin.Engine

	mu        sync.Mutex
	documents []string
	questions []string
}

// Option configures a Server.
type Option func(*Server)

// WithDocuments seeds the document list.
func WithDocuments(names ...string) Option {
	return func(s *Server) {
		s.documents = append(s.documents, names...)
	}
}

// WithAnswerer replaces the default answer generator.
func WithAnswerer(fn Answerer) Option {
	return func(s *Server) {
		s.answer = fn
	}
}

// WithFragmentDelay sets the pause between streamed words.
func WithFragmentDelay(d time.Duration) Option {
	return func(s *Server) {
		s.fragmentDelay = d
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server and its routes.
func New(opts ...Option) *Server {
	s := &Server{
		answer: DefaultAnswerer,
		logger: zerolog.Nop(),
		upgrader: websocket.Upgrader{
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery(), cors())
	r.GET("/get_documents/", s.handleDocuments)
	r.POST("/upload_pdf/", s.handleUpload)
	r.GET("/ws/chat", s.handleChat)
	s.router = r

	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Documents returns the current document names.
func (s *Server) Documents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.documents...)
}

// Questions returns every question received on any chat socket, in order.
func (s *Server) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}

// DefaultAnswerer cites every known document. With no documents it produces
// an answer without sources, like the real backend on an empty store.
func DefaultAnswerer(question string, documents []string) (string, []string) {
	answer := fmt.Sprintf("You asked: %s\n\n- This answer comes from the mock backend.", strings.TrimSpace(question))
	return answer, documents
}

func (s *Server) handleDocuments(c *gin.Context) {
	docs := s.Documents()
	if docs == nil {
		docs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "field 'file' is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	defer f.Close()

	n, err := io.Copy(io.Discard, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	known := false
	for _, d := range s.documents {
		if d == fh.Filename {
			known = true
			break
		}
	}
	if !known {
		s.documents = append(s.documents, fh.Filename)
	}
	s.mu.Unlock()

	s.logger.Info().Str("filename", fh.Filename).Int64("size", n).Msg("stored upload")
	c.JSON(http.StatusOK, gin.H{"message": "PDF uploaded and processed successfully"})
}

func (s *Server) handleChat(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("chat socket closed")
			}
			return
		}

		question := string(data)
		s.mu.Lock()
		s.questions = append(s.questions, question)
		s.mu.Unlock()

		if err := s.stream(conn, question); err != nil {
			s.logger.Debug().Err(err).Msg("failed to stream answer")
			return
		}
	}
}

// stream writes one answer word by word, followed by the source trailer.
func (s *Server) stream(conn *websocket.Conn, question string) error {
	answer, sources := s.answer(question, s.Documents())

	for _, word := range strings.Split(answer, " ") {
		if err := conn.WriteJSON(Frame{EventType: "answer", Data: word + " "}); err != nil {
			return err
		}
		if s.fragmentDelay > 0 {
			time.Sleep(s.fragmentDelay)
		}
	}

	if len(sources) == 0 {
		return nil
	}
	return conn.WriteJSON(Frame{EventType: "answer", Data: SourceTrailer(sources)})
}

// SourceTrailer formats the final fragment listing cited documents.
func SourceTrailer(sources []string) string {
	seen := map[string]bool{}
	var lines []string
	for _, src := range sources {
		if seen[src] {
			continue
		}
		seen[src] = true
		lines = append(lines, "**"+src+"**")
	}
	return "\n\nSource PDF：\n\n" + strings.Join(lines, "\n")
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
