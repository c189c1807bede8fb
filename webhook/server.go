// ABOUTME: HTTP receiver for board change notifications and health checks
// ABOUTME: Verifies, filters by board, and acknowledges before any sync runs
package webhook

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/ProxiMyti/proximyti-monday-integration/logging"
)

const (
	ServiceName    = "ProxiMyti Monday.com Webhook Handler"
	defaultMaxBody = 1 << 20
)

// Notifier is told when the watched board changed.
type Notifier interface {
	Notify()
}

type Config struct {
	BoardID  string
	Secret   string
	Notifier Notifier
	Logger   logging.Logger
	// MaxBody caps the request body in bytes.
	MaxBody int64
}

type handler struct {
	boardID  string
	verifier *Verifier
	notifier Notifier
	log      logging.Logger
	maxBody  int64
}

// NewRouter builds the gin engine serving /webhook and /health.
func NewRouter(cfg Config) *gin.Engine {
	h := &handler{
		boardID:  cfg.BoardID,
		verifier: NewVerifier(cfg.Secret),
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		maxBody:  cfg.MaxBody,
	}
	if h.log == nil {
		h.log = logging.Discard()
	}
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBody
	}
	if !h.verifier.Enabled() {
		h.log.Warn("webhook secret not set, signatures will not be verified")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/webhook", h.webhook)
	r.GET("/health", health)
	return r
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   ServiceName,
	})
}

func (h *handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload_too_large"})
			return
		}
		h.log.Error("failed to read webhook body", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	payload := gjson.ParseBytes(body)
	isObject := gjson.ValidBytes(body) && payload.IsObject()

	// Subscription handshake: echo the challenge, nothing else happens.
	if isObject {
		if challenge := payload.Get("challenge"); challenge.Exists() && !payload.Get("event").Exists() {
			c.JSON(http.StatusOK, gin.H{"challenge": challenge.String()})
			return
		}
	}

	// The signature covers the raw bytes, so it is checked before the body
	// is judged as JSON.
	if !h.verifier.Enabled() {
		h.log.Warn("accepting unverified webhook")
	} else if err := h.verifier.Verify(c.GetHeader(SignatureHeader), body); err != nil {
		h.log.Warn("rejected webhook", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if !isObject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	eventType := first(payload, "event.type", "type")
	boardID := first(payload, "event.boardId", "boardId")
	h.log.Info("webhook received", "type", eventType, "board", boardID)

	if boardID == "" || boardID != h.boardID {
		h.log.Info("ignoring webhook for other board", "board", boardID)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if h.notifier == nil {
		h.log.Error("webhook has no sync scheduler")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	h.notifier.Notify()
	c.JSON(http.StatusOK, gin.H{"status": "scheduled"})
}

// first returns the first non-empty value among paths.
func first(payload gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := payload.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
