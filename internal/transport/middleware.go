package transport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/logger"
	portidem "github.com/envino/wine-api/internal/port/idempotency"
	"github.com/envino/wine-api/internal/transport/problem"
)

// IdempotencyKeyHeader carries the client's retry key on POST requests.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayedHeader marks a response served from the idempotency store.
const ReplayedHeader = "Idempotent-Replayed"

const maxIdempotencyKeyLen = 255

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logger.RequestIDKey, id)
		c.Writer.Header().Set(logger.RequestIDKey, id)
		c.Next()
	}
}

// Recovery turns a panic into a problem-details 500.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("request_id", c.GetString(logger.RequestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		problem.Internal(c)
	})
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", logger.RequestIDKey, IdempotencyKeyHeader},
		MaxAge:       12 * time.Hour,
	}
}

// CORS answers preflight requests with 204 and sets allow headers only for
// listed origins. An empty list disables cross-origin access.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	allowed := func(origin string) string {
		if wildcard {
			return "*"
		}
		for _, o := range cfg.AllowOrigins {
			if o == origin {
				return origin
			}
		}
		return ""
	}

	return func(c *gin.Context) {
		if origin := allowed(c.GetHeader("Origin")); origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			h.Set("Access-Control-Expose-Headers", strings.Join([]string{logger.RequestIDKey, "Location", ReplayedHeader}, ", "))
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// storedResponse is what the idempotency store keeps per key.
type storedResponse struct {
	Status      int    `json:"status"`
	Location    string `json:"location,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	// RequestHash is the hex SHA-256 of the request body the response answers.
	RequestHash string `json:"request_hash,omitempty"`
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response for a POST carrying an
// Idempotency-Key. Only 2xx responses are recorded, so a failed attempt can
// be retried with the same key. Reusing a key with a different body is a 422.
// Store failures never fail the request.
func Idempotency(store portidem.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			problem.Write(c, problem.New(http.StatusBadRequest, "Idempotency-Key must be 255 characters or fewer"))
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		storeKey := c.Request.Method + " " + c.FullPath() + " " + key

		reqBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			problem.Write(c, problem.New(http.StatusBadRequest, "The request body could not be read"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		sum := sha256.Sum256(reqBody)
		reqHash := hex.EncodeToString(sum[:])

		data, err := store.Get(ctx, storeKey)
		switch {
		case err == nil:
			var resp storedResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				if resp.RequestHash != "" && resp.RequestHash != reqHash {
					problem.Write(c, problem.New(http.StatusUnprocessableEntity,
						"Idempotency-Key was already used with a different request body"))
					return
				}
				replay(c, resp)
				return
			}
			log.Warn("discarding unreadable idempotency record", zap.String("idempotency_key", key))
		case !errors.Is(err, portidem.ErrNotFound):
			log.Warn("idempotency lookup failed", zap.String("idempotency_key", key), zap.Error(err))
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		if status < 200 || status >= 300 {
			return
		}
		record, err := json.Marshal(storedResponse{
			Status:      status,
			Location:    rw.Header().Get("Location"),
			ContentType: rw.Header().Get("Content-Type"),
			Body:        rw.body.Bytes(),
			RequestHash: reqHash,
		})
		if err != nil {
			log.Warn("encoding idempotency record failed", zap.Error(err))
			return
		}
		if _, err := store.SetIfAbsent(ctx, storeKey, record, ttl); err != nil {
			log.Warn("idempotency store failed", zap.String("idempotency_key", key), zap.Error(err))
		}
	}
}

func replay(c *gin.Context, resp storedResponse) {
	if resp.Location != "" {
		c.Header("Location", resp.Location)
	}
	c.Header(ReplayedHeader, "true")
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(resp.Status, contentType, resp.Body)
	c.Abort()
}
