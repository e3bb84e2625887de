package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xrp-transfer/backend/internal/http/dto"
	"github.com/xrp-transfer/backend/internal/models"
	"go.uber.org/zap"
)

// AuditReader is the read side of the transfer journal.
type AuditReader interface {
	ListByOperation(ctx context.Context, operationID uuid.UUID, limit int) ([]models.AuditLog, error)
	Recent(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	audit AuditReader
	log   *zap.Logger
}

func NewAuditHandler(audit AuditReader, log *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

// List returns journal lines, optionally for one operation.
// GET /audit?operation_id=&limit=&offset=
func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	var (
		logs []models.AuditLog
		err  error
	)
	if raw := c.Query("operation_id"); raw != "" {
		id, perr := uuid.Parse(raw)
		if perr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid operation_id"})
		}
		logs, err = h.audit.ListByOperation(c.UserContext(), id, limit)
	} else {
		logs, err = h.audit.Recent(c.UserContext(), limit, offset)
	}
	if err != nil {
		h.log.Error("failed to read audit log", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}
