package api

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/alloc33/market/internal/domain/models"
	xhttp "github.com/alloc33/market/pkg/http"
	xlogger "github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/queue"
)

// Ingestor accepts one validated alert. Implemented by usecase.AlertIngestor.
type Ingestor interface {
	Ingest(ctx context.Context, alert models.AlertData) error
}

// WebhookHandler is the ingestion boundary for signal-source webhooks. The
// response acknowledges recording only; execution happens after the response
// is sent.
type WebhookHandler struct {
	logger   *xlogger.Logger
	ingestor Ingestor
}

func NewWebhookHandler(logger *xlogger.Logger, ingestor Ingestor) *WebhookHandler {
	return &WebhookHandler{logger: logger, ingestor: ingestor}
}

// Alert handles POST /webhook/alert.
func (h *WebhookHandler) Alert(c echo.Context) error {
	req := &models.AlertData{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.ingestor.Ingest(c.Request().Context(), *req); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return xhttp.AppErrorResponse(c,
				xhttp.ServiceUnavailableError("dispatch queue full").WithError(err))
		}
		h.logger.Error("alert ingestion failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	return xhttp.CreatedResponse(c, echo.Map{"result": "accepted"})
}
