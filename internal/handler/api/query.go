package api

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	xhttp "github.com/alloc33/market/pkg/http"
	xlogger "github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/util"
)

// QueryHandler is a thin pass-through over broker read endpoints plus the
// local alert log. Broker responses are returned as-is, no aggregation.
type QueryHandler struct {
	logger  *xlogger.Logger
	brokers *broker.Registry
	store   domrepo.AlertStore
}

func NewQueryHandler(logger *xlogger.Logger, brokers *broker.Registry, store domrepo.AlertStore) *QueryHandler {
	return &QueryHandler{logger: logger, brokers: brokers, store: store}
}

// client resolves the broker named by the "broker" query param, defaulting to
// alpaca.
func (h *QueryHandler) client(c echo.Context) (broker.Client, *xhttp.AppError) {
	kind := models.BrokerKind(c.QueryParam("broker"))
	if kind == "" {
		kind = models.BrokerAlpaca
	}
	cl, ok := h.brokers.Resolve(kind)
	if !ok {
		return nil, xhttp.BadRequestErrorf("unknown broker %q", kind)
	}
	return cl, nil
}

func (h *QueryHandler) Account(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	acct, err := cl.GetAccount(c.Request().Context())
	if err != nil {
		return h.brokerError(c, "account", err)
	}
	return xhttp.SuccessResponse(c, acct)
}

func (h *QueryHandler) Asset(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbol required"))
	}
	asset, err := cl.GetAsset(c.Request().Context(), symbol)
	if err != nil {
		return h.brokerError(c, "asset", err)
	}
	return xhttp.SuccessResponse(c, asset)
}

func (h *QueryHandler) Assets(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	class := models.AssetClass(c.QueryParam("class"))
	if class == "" {
		class = models.AssetClassUSEquity
	}
	assets, err := cl.GetAssets(c.Request().Context(), class)
	if err != nil {
		return h.brokerError(c, "assets", err)
	}
	return xhttp.ListResponse(c, assets, int64(len(assets)))
}

func (h *QueryHandler) Orders(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	q := models.OrdersQuery{
		Status: c.QueryParam("status"),
		Limit:  util.ParseIntDefault(c.QueryParam("limit"), 50),
		After:  util.ParseTimeDefault(c.QueryParam("after"), time.Time{}),
		Until:  util.ParseTimeDefault(c.QueryParam("until"), time.Time{}),
	}
	orders, err := cl.GetOrders(c.Request().Context(), q)
	if err != nil {
		return h.brokerError(c, "orders", err)
	}
	return xhttp.ListResponse(c, orders, int64(len(orders)))
}

func (h *QueryHandler) Order(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("bad order id: %v", err))
	}
	order, err := cl.GetOrder(c.Request().Context(), id)
	if err != nil {
		return h.brokerError(c, "order", err)
	}
	return xhttp.SuccessResponse(c, order)
}

func (h *QueryHandler) CancelOrder(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("bad order id: %v", err))
	}
	if err := cl.CancelOrder(c.Request().Context(), id); err != nil {
		return h.brokerError(c, "cancel_order", err)
	}
	return xhttp.SuccessResponse(c, echo.Map{"result": "canceled"})
}

func (h *QueryHandler) Positions(c echo.Context) error {
	cl, aerr := h.client(c)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	positions, err := cl.GetPositions(c.Request().Context())
	if err != nil {
		return h.brokerError(c, "positions", err)
	}
	return xhttp.ListResponse(c, positions, int64(len(positions)))
}

// Alerts reads back the recorded alert log for one ticker.
func (h *QueryHandler) Alerts(c echo.Context) error {
	ticker := c.QueryParam("ticker")
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker required"))
	}
	now := time.Now().UTC()
	from := util.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(c.QueryParam("to"), now)
	limit := util.ParseIntDefault(c.QueryParam("limit"), 100)

	rows, err := h.store.Query(c.Request().Context(), ticker, from, to, limit)
	if err != nil {
		h.logger.Error("alert query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// brokerError maps a broker failure to an HTTP response.
func (h *QueryHandler) brokerError(c echo.Context, op string, err error) error {
	h.logger.Error("broker query failed", xlogger.String("op", op), xlogger.Error(err))

	var berr *broker.Error
	if errors.As(err, &berr) {
		switch berr.Kind {
		case broker.KindNotFound:
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError(berr.Error()))
		case broker.KindRejected:
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(berr.Error()))
		case broker.KindAuth, broker.KindRateLimit, broker.KindUnavailable:
			return xhttp.AppErrorResponse(c, xhttp.BadGatewayError(berr.Error()))
		}
	}
	return xhttp.InternalServerErrorResponse(c)
}
