package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/xrp-transfer/backend/internal/http/dto"
	"github.com/xrp-transfer/backend/internal/middleware"
	"github.com/xrp-transfer/backend/internal/transfer"
	"go.uber.org/zap"
)

type TransferHandler struct {
	ctrl *transfer.Controller
	// Operations outlive the request that started them; they stop with baseCtx.
	baseCtx context.Context
	log     *zap.Logger
}

func NewTransferHandler(baseCtx context.Context, ctrl *transfer.Controller, log *zap.Logger) *TransferHandler {
	return &TransferHandler{ctrl: ctrl, baseCtx: baseCtx, log: log}
}

// GET /network
func (h *TransferHandler) GetNetwork(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NewNetworkResponse(h.ctrl.Network(), h.ctrl.Contract())})
}

// GET /state
func (h *TransferHandler) GetState(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.ctrl.State()})
}

// UpdateForm sets recipient and/or amount.
// PUT /form
func (h *TransferHandler) UpdateForm(c *fiber.Ctx) error {
	var req dto.UpdateFormRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:     "invalid request body",
			RequestID: middleware.GetRequestID(c),
		})
	}
	if req.Recipient == nil && req.Amount == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:     "recipient or amount is required",
			RequestID: middleware.GetRequestID(c),
		})
	}

	ctx := c.UserContext()
	s := h.ctrl.State()
	if req.Recipient != nil {
		s = h.ctrl.SetRecipient(ctx, *req.Recipient)
	}
	if req.Amount != nil {
		s = h.ctrl.SetAmount(ctx, *req.Amount)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: s})
}

// POST /wallet/connect
func (h *TransferHandler) Connect(c *fiber.Ctx) error {
	return h.start(c, transfer.OpConnect)
}

// POST /transfers/contract
func (h *TransferHandler) TransferViaContract(c *fiber.Ctx) error {
	return h.start(c, transfer.OpTransferContract)
}

// POST /transfers/direct
func (h *TransferHandler) TransferDirect(c *fiber.Ctx) error {
	return h.start(c, transfer.OpTransferDirect)
}

// start launches op in the background and answers 202 with the snapshot
// taken right after the operation began. Progress arrives over /ws.
func (h *TransferHandler) start(c *fiber.Ctx, op transfer.Operation) error {
	err := h.ctrl.Go(h.baseCtx, op)
	switch {
	case errors.Is(err, transfer.ErrInProgress):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error:     err.Error(),
			RequestID: middleware.GetRequestID(c),
		})
	case err != nil:
		h.log.Error("failed to start operation", zap.String("operation", string(op)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:     "internal error",
			RequestID: middleware.GetRequestID(c),
		})
	}

	h.log.Debug("operation started",
		zap.String("operation", string(op)),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("operator", middleware.GetOperator(c)),
	)
	return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{OK: true, Data: h.ctrl.State()})
}
