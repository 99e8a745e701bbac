package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/internal/service"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
	"github.com/labstack/echo/v4"
)

type BatchHandler struct {
	service service.LedgerService
	logger  *logger.Logger
}

func NewBatchHandler(service service.LedgerService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  log,
	}
}

func (h *BatchHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	h.logger.Info(ctx, "Handling batch upload")

	file, err := c.FormFile("file")
	if err != nil {
		h.logger.Error(ctx, "Failed to get file from request",
			"error", err,
		)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "file is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error(ctx, "Failed to open file",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to open file",
		})
	}
	defer src.Close()

	batchID, err := h.service.SubmitBatch(ctx, src)
	if err != nil {
		h.logger.Error(ctx, "Failed to submit batch",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to submit batch",
		})
	}

	h.logger.Info(ctx, "Batch accepted",
		"batch_id", batchID,
	)

	return c.JSON(http.StatusAccepted, map[string]string{
		"batch_id": batchID,
		"status":   string(domain.BatchStatusProcessing),
	})
}

func (h *BatchHandler) GetBatch(c echo.Context) error {
	ctx := c.Request().Context()
	batchID := c.Param("id")

	batch, err := h.service.GetBatch(ctx, batchID)
	if err != nil {
		return h.fail(c, err, "failed to get batch")
	}

	return c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) GetAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	batchID := c.Param("id")

	accounts, err := h.service.GetAccounts(ctx, batchID)
	if err != nil {
		return h.fail(c, err, "failed to get accounts")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"batch_id": batchID,
		"items":    accounts,
		"total":    len(accounts),
	})
}

func (h *BatchHandler) GetAccount(c echo.Context) error {
	ctx := c.Request().Context()
	batchID := c.Param("id")

	client, err := strconv.ParseUint(c.Param("client"), 10, 16)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "client must be an integer between 0 and 65535",
		})
	}

	account, err := h.service.GetAccount(ctx, batchID, domain.ClientID(client))
	if err != nil {
		return h.fail(c, err, "failed to get account")
	}

	return c.JSON(http.StatusOK, account)
}

func (h *BatchHandler) GetFailures(c echo.Context) error {
	ctx := c.Request().Context()
	batchID := c.Param("id")

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(c.QueryParam("per_page"))
	if err != nil || perPage < 1 {
		perPage = 10
	}

	var kindFilter *domain.FailureKind
	if kindParam := c.QueryParam("kind"); kindParam != "" {
		kind, ok := domain.ParseFailureKind(kindParam)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "unknown failure kind",
			})
		}
		kindFilter = &kind
	}

	h.logger.Debug(ctx, "Getting failures",
		"batch_id", batchID,
		"page", page,
		"per_page", perPage,
		"kind", kindFilter,
	)

	failures, total, err := h.service.GetFailures(ctx, batchID, page, perPage, kindFilter)
	if err != nil {
		return h.fail(c, err, "failed to get failures")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"batch_id": batchID,
		"items":    failures,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

// fail maps service errors to responses; anything unexpected is a 500.
func (h *BatchHandler) fail(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, domain.ErrBatchNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "batch not found",
		})
	case errors.Is(err, domain.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "account not found",
		})
	case errors.Is(err, domain.ErrInvalidPageParams):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	h.logger.Error(c.Request().Context(), message,
		"batch_id", c.Param("id"),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": message,
	})
}
