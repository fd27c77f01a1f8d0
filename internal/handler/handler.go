package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/BarkinBalci/attribution-service/docs"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/repository"
	"github.com/BarkinBalci/attribution-service/internal/service"
	"github.com/BarkinBalci/attribution-service/internal/webhook"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency checked by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	eventService       service.EventServicer
	attributionService service.AttributionServicer
	webhookService     service.WebhookServicer
	dependencies       map[string]Pinger
	router             *gin.Engine
	log                *zap.Logger
}

func NewHandler(
	eventService service.EventServicer,
	attributionService service.AttributionServicer,
	webhookService service.WebhookServicer,
	dependencies map[string]Pinger,
	log *zap.Logger,
) *Handler {
	h := &Handler{
		eventService:       eventService,
		attributionService: attributionService,
		webhookService:     webhookService,
		dependencies:       dependencies,
		router:             gin.Default(),
		log:                log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", h.getMetrics)
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := h.router.Group("/v1")
	v1.POST("/events", h.trackEvent)
	v1.GET("/events/:event_id", h.getEvent)
	v1.POST("/attribution/capture", h.captureAttribution)
	v1.GET("/attribution/:token", h.getAttribution)
	v1.DELETE("/attribution/:token", h.resetAttribution)
	v1.POST("/checkout/webhooks/:type", h.sendWebhook)

	h.router.POST("/webhooks/:type", h.receiveWebhook)
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service and its backing stores are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	response := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			h.log.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			response[name] = "unavailable"
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response[name] = "ok"
	}

	c.JSON(status, response)
}

// trackEvent handles POST /v1/events
// @Summary Track a checkout event
// @Description Accept a checkout event for attribution and delivery to the ads provider
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.TrackEventRequest true "Event data"
// @Success 202 {object} dto.TrackEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/events [post]
func (h *Handler) trackEvent(c *gin.Context) {
	var req dto.TrackEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request",
			zap.Error(err),
			zap.String("event_name", req.EventName))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventID, err := h.eventService.TrackEvent(c.Request.Context(), &req, service.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.writeError(c, err, "Failed to track event", zap.String("event_name", req.EventName))
		return
	}

	h.log.Info("Event accepted",
		zap.String("event_id", eventID),
		zap.String("event_name", req.EventName))

	c.JSON(http.StatusAccepted, dto.TrackEventResponse{
		EventID: eventID,
		Status:  "accepted",
	})
}

// getEvent handles GET /v1/events/:event_id
// @Summary Get event delivery status
// @Description Return the delivery state of a tracked event
// @Tags events
// @Produce json
// @Param event_id path string true "Event ID"
// @Success 200 {object} dto.EventStatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/events/{event_id} [get]
func (h *Handler) getEvent(c *gin.Context) {
	eventID := c.Param("event_id")

	response, err := h.eventService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		h.writeError(c, err, "Failed to get event", zap.String("event_id", eventID))
		return
	}

	c.JSON(http.StatusOK, response)
}

// captureAttribution handles POST /v1/attribution/capture
// @Summary Capture attribution parameters
// @Description Merge the UTM and click-id parameters of a landing page into the session attribution
// @Tags attribution
// @Accept json
// @Produce json
// @Param capture body dto.CaptureRequest true "Landing page parameters"
// @Success 200 {object} dto.AttributionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/attribution/capture [post]
func (h *Handler) captureAttribution(c *gin.Context) {
	var req dto.CaptureRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid capture request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.attributionService.Capture(c.Request.Context(), &req))
}

// getAttribution handles GET /v1/attribution/:token
// @Summary Get session attribution
// @Tags attribution
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {object} dto.AttributionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/attribution/{token} [get]
func (h *Handler) getAttribution(c *gin.Context) {
	token := c.Param("token")

	response, err := h.attributionService.Get(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err, "Failed to get attribution", zap.String("token", token))
		return
	}

	c.JSON(http.StatusOK, response)
}

// resetAttribution handles DELETE /v1/attribution/:token
// @Summary Reset session attribution
// @Tags attribution
// @Param token path string true "Session token"
// @Success 204
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/attribution/{token} [delete]
func (h *Handler) resetAttribution(c *gin.Context) {
	token := c.Param("token")

	if err := h.attributionService.Reset(c.Request.Context(), token); err != nil {
		h.writeError(c, err, "Failed to reset attribution", zap.String("token", token))
		return
	}

	c.Status(http.StatusNoContent)
}

// getMetrics handles GET /metrics
// @Summary Get attribution metrics
// @Description Retrieve aggregated delivery metrics with optional grouping by utm_source, utm_campaign, status, hour, or day
// @Tags metrics
// @Produce json
// @Param event_name query string true "Event name to filter by" example:"Purchase"
// @Param from query int true "Start timestamp (Unix epoch)" example:"1723475612"
// @Param to query int true "End timestamp (Unix epoch)" example:"1723562012"
// @Param group_by query string false "Field to group by" Enums(utm_source, utm_campaign, status, hour, day)
// @Success 200 {object} dto.GetMetricsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /metrics [get]
func (h *Handler) getMetrics(c *gin.Context) {
	var req dto.GetMetricsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid metrics request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	response, err := h.eventService.GetMetrics(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to get metrics",
			zap.String("event_name", req.EventName),
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		return
	}

	h.log.Info("Metrics retrieved",
		zap.String("event_name", req.EventName),
		zap.Uint64("total_attempts", response.TotalAttempts),
		zap.Uint64("sent_events", response.SentEvents))

	c.JSON(http.StatusOK, response)
}

// sendWebhook handles POST /v1/checkout/webhooks/:type
// @Summary Send a checkout webhook
// @Description Post a checkout step payload to the webhook configured for its type
// @Tags webhooks
// @Accept json
// @Produce json
// @Param type path string true "Webhook type" Enums(email, customer, address, payment)
// @Param payload body object true "Checkout step payload"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/checkout/webhooks/{type} [post]
func (h *Handler) sendWebhook(c *gin.Context) {
	typ := c.Param("type")

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := h.webhookService.Send(c.Request.Context(), typ, payload); err != nil {
		h.writeError(c, err, "Failed to send webhook", zap.String("webhook_type", typ))
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Type: typ, Status: "sent"})
}

// receiveWebhook handles POST /webhooks/:type
// @Summary Receive a webhook
// @Description Record an inbound webhook call in the webhook log
// @Tags webhooks
// @Accept json
// @Produce json
// @Param type path string true "Webhook type" Enums(email, customer, address, payment)
// @Param payload body object true "Webhook payload"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /webhooks/{type} [post]
func (h *Handler) receiveWebhook(c *gin.Context) {
	typ := c.Param("type")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || (len(body) > 0 && !json.Valid(body)) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON",
		})
		return
	}

	if err := h.webhookService.Receive(c.Request.Context(), typ, body); err != nil {
		h.writeError(c, err, "Failed to receive webhook", zap.String("webhook_type", typ))
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Type: typ, Status: "received"})
}

// writeError maps service errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, err error, msg string, fields ...zap.Field) {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, webhook.ErrInvalidType),
		errors.Is(err, webhook.ErrInvalidProduct):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrEventNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, webhook.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, webhook.ErrNotConfigured), errors.Is(err, webhook.ErrInvalidURL):
		status, code = http.StatusServiceUnavailable, "not_configured"
	}

	fields = append(fields, zap.Error(err), zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		h.log.Error(msg, fields...)
	} else {
		h.log.Warn(msg, fields...)
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
