package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/config"
	"github.com/3xyy/Sortify/internal/ratelimit"
	"github.com/3xyy/Sortify/internal/util"
	"github.com/3xyy/Sortify/internal/validate"
	"github.com/3xyy/Sortify/internal/version"
)

// Client-facing messages. Anything diagnostic goes to the log, never here.
const (
	genericErrorMessage   = "An unexpected error occurred. Please try again."
	unavailableMessage    = "Service temporarily unavailable"
	rateLimitedMessage    = "Too many requests. Please try again later."
	badRequestMessage     = "Invalid request format"
	analyzeFailedMessage  = "Failed to analyze image. Please try again."
	processFailedMessage  = "Failed to process analysis. Please try again."
	updateRequiredMessage = "Please update your app to continue. Go to Settings and tap 'Check For Updates', or reinstall the app from your home screen."
)

type Handler struct {
	cfg     *config.Config
	engines *classify.Engines
	limiter *ratelimit.FixedWindow
	log     *zap.Logger
}

func NewHandler(cfg *config.Config, engines *classify.Engines, limiter *ratelimit.FixedWindow, log *zap.Logger) *Handler {
	return &Handler{cfg: cfg, engines: engines, limiter: limiter, log: log}
}

type analyzeRequest struct {
	ImageData  string `json:"imageData"`
	City       string `json:"city"`
	AppVersion string `json:"appVersion"`
}

// Analyze runs the admission pipeline and one model call, strictly in
// order: decode -> version gate -> rate limit -> payload validation ->
// engine invocation -> normalized result. Every rejection happens before
// any upstream cost is incurred.
func (h *Handler) Analyze(c *gin.Context) {
	log := h.log.With(zap.String(requestIDKey, c.GetString(requestIDKey)))

	// Bound the body before touching it; the image cap plus JSON overhead.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(h.cfg.MaxImageBytes)*3/2)

	var req analyzeRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			log.Error("request body over limit", zap.Int64("limit", tooBig.Limit))
			c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": badRequestMessage})
		return
	}

	// Version gate first: an outdated client cannot parse the result
	// schema, so it must not burn a rate-limit slot or a model call.
	if version.Outdated(req.AppVersion, h.cfg.MinAppVersion) {
		current := req.AppVersion
		if current == "" {
			current = "unknown"
		}
		log.Info("outdated client rejected",
			zap.String("clientVersion", current),
			zap.String("requiredVersion", h.cfg.MinAppVersion))
		c.JSON(http.StatusUpgradeRequired, gin.H{
			"error":           "App update required",
			"updateRequired":  true,
			"message":         updateRequiredMessage,
			"currentVersion":  current,
			"requiredVersion": h.cfg.MinAppVersion,
		})
		return
	}

	identity := clientIdentity(c)
	decision := h.limiter.Admit(identity)
	if !decision.Allowed {
		retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
		log.Warn("rate limit exceeded", zap.String("identity", identity))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Remaining", "0")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      rateLimitedMessage,
			"retryAfter": retryAfter,
		})
		return
	}

	if err := validate.ImageData(req.ImageData, h.cfg.MaxImageBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	city, err := validate.City(req.City, h.cfg.MaxCityLength)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engine, err := h.engines.Get(h.cfg.Engine)
	if err != nil {
		log.Error("engine not configured", zap.String("engine", h.cfg.Engine))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": unavailableMessage})
		return
	}

	// Raw base64 becomes a data URL; URLs and data URIs pass through.
	imageURL := req.ImageData
	if !strings.HasPrefix(imageURL, "http") && !strings.HasPrefix(imageURL, "data:") {
		imageURL = util.MakeDataURL("image/jpeg", imageURL)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.UpstreamTimeout)
	defer cancel()

	result, err := engine.Classify(ctx, classify.Input{ImageURL: imageURL, City: city})
	if err != nil {
		h.writeClassifyError(c, log, err)
		return
	}

	log.Info("analysis complete",
		zap.String("itemName", result.ItemName),
		zap.String("category", result.Category),
		zap.String("city", city))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	c.JSON(http.StatusOK, result)
}

// writeClassifyError maps engine failures onto the error taxonomy. The
// caller sees only short generic messages; kinds are distinguished in the
// log for diagnosis.
func (h *Handler) writeClassifyError(c *gin.Context, log *zap.Logger, err error) {
	var (
		upstream  *classify.UpstreamError
		malformed *classify.MalformedError
	)
	switch {
	case errors.Is(err, classify.ErrNoAPIKey):
		log.Error("model credential missing", zap.String("engine", h.cfg.Engine))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": unavailableMessage})
	case errors.As(err, &malformed):
		log.Error("malformed upstream response",
			zap.String("provider", malformed.Provider),
			zap.String("reason", malformed.Reason))
		c.JSON(http.StatusBadGateway, gin.H{"error": processFailedMessage})
	case errors.As(err, &upstream):
		log.Error("upstream call failed",
			zap.String("provider", upstream.Provider),
			zap.Int("status", upstream.Status),
			zap.String("body", upstream.Body))
		c.JSON(http.StatusBadGateway, gin.H{"error": analyzeFailedMessage})
	default:
		log.Error("classification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
	}
}
