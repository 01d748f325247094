package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studybud-app/room-service/internal/services"
	"github.com/studybud-app/room-service/internal/utils"
)

type PaymentHandler struct {
	BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    NewBaseHandler(logger),
		paymentService: paymentService,
	}
}

// StartPayment opens a gateway checkout for the room and returns the
// approval URL the caller must be redirected to
func (h *PaymentHandler) StartPayment(c *gin.Context) {
	roomID := h.parseIDParam(c, "id")
	if roomID == 0 {
		return
	}

	h.LogRequest(c, "Starting payment", "room_id", roomID)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.StartPayment(c.Request.Context(), roomID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// ExecutePayment captures an approved checkout. The gateway redirects the
// buyer here with the order token and payer id in the query string.
func (h *PaymentHandler) ExecutePayment(c *gin.Context) {
	orderID := c.Query("token")
	if orderID == "" {
		orderID = c.Query("order_id")
	}
	if orderID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Order id is required",
		})
		return
	}

	payerID := c.Query("PayerID")
	if payerID == "" {
		payerID = c.Query("payer_id")
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Executing payment", "gateway_order_id", orderID)

	result, err := h.paymentService.ExecutePayment(c.Request.Context(), orderID, payerID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListMyPayments lists the caller's payments
func (h *PaymentHandler) ListMyPayments(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c, 20)

	payments, err := h.paymentService.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}
