package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/storebox-portal/internal/cancellation"
	"github.com/nurpe/storebox-portal/internal/http/middleware"
	"github.com/nurpe/storebox-portal/internal/lifecycle"
	"github.com/nurpe/storebox-portal/internal/model"
	"github.com/nurpe/storebox-portal/internal/payment"
	"github.com/nurpe/storebox-portal/internal/service"
)

type Handler struct {
	orders  *service.OrderService
	reports *service.ReportService
	log     zerolog.Logger
}

func NewHandler(orders *service.OrderService, reports *service.ReportService, log zerolog.Logger) *Handler {
	return &Handler{orders: orders, reports: reports, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Provider callback authenticates with its own signature upstream.
	router.POST("/callbacks/payments/:id", h.confirmPayment)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/orders", h.listOrders)
	protected.GET("/cancellation/reasons", h.cancellationReasons)
	protected.GET("/orders/:id", h.getOrder)
	protected.GET("/orders/:id/autocancel", h.autoCancelStatus)
	protected.POST("/orders/:id/approve", h.approveOrder)
	protected.POST("/orders/:id/contract/sign", h.signContract)
	protected.POST("/orders/:id/payments", h.createPayment)
	protected.POST("/payments/manual", h.createManualPayment)
	protected.POST("/orders/:id/cancellation", h.requestCancellation)
	protected.POST("/orders/:id/cancellation/approve", h.approveCancellation)
	protected.GET("/orders/:id/cancellation/act", h.cancellationAct)
	protected.POST("/orders/:id/unlock", h.unlockStorage)
	protected.PUT("/orders/:id/delivery", h.setDelivery)
	protected.POST("/orders/:id/extend", h.extendOrder)
	protected.PUT("/orders/:id", h.updateOrder)
	protected.DELETE("/orders/:id", h.deleteOrder)
	protected.POST("/orders/export", h.exportRegister)
}

func (h *Handler) cancellationReasons(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reasons": h.orders.CancellationReasons()})
}

func (h *Handler) listOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	result := make([]gin.H, len(orders))
	for i, o := range orders {
		result[i] = orderJSON(o)
	}
	c.JSON(http.StatusOK, gin.H{"orders": result})
}

func (h *Handler) getOrder(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

func (h *Handler) autoCancelStatus(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	status, err := h.orders.AutoCancelRemaining(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	body := gin.H{
		"state":             string(status.State),
		"remaining_seconds": status.RemainingSeconds,
	}
	if status.Deadline != nil {
		body["deadline"] = status.Deadline.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) approveOrder(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	order, err := h.orders.Approve(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

func (h *Handler) signContract(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	order, err := h.orders.SignContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

func (h *Handler) createPayment(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	redirectURL, err := h.orders.CreateRentPayment(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
}

type manualPaymentRequest struct {
	OrderPaymentID string `json:"order_payment_id" binding:"required"`
}

func (h *Handler) createManualPayment(c *gin.Context) {
	var req manualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	paymentID, err := uuid.Parse(strings.TrimSpace(req.OrderPaymentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_payment_id"})
		return
	}
	redirectURL, err := h.orders.CreateManualPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
}

func (h *Handler) confirmPayment(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orders.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

type cancellationRequest struct {
	Reason          string `json:"reason" binding:"required"`
	Comment         string `json:"comment"`
	PickupMethod    string `json:"pickup_method"`
	SelfPickupDate  string `json:"self_pickup_date"`
	DeliveryDate    string `json:"delivery_date"`
	DeliveryAddress string `json:"delivery_address"`
}

func (h *Handler) requestCancellation(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req cancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CancellationInput{
		Reason:          cancellation.Reason(req.Reason),
		Comment:         req.Comment,
		PickupMethod:    cancellation.PickupMethod(req.PickupMethod),
		DeliveryAddress: req.DeliveryAddress,
	}
	if req.SelfPickupDate != "" {
		date, err := parseDate(req.SelfPickupDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid self_pickup_date"})
			return
		}
		input.SelfPickupDate = &date
	}
	if req.DeliveryDate != "" {
		date, err := parseDate(req.DeliveryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery_date"})
			return
		}
		input.DeliveryDate = &date
	}

	result, err := h.orders.RequestCancellation(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	body := gin.H{"order": orderJSON(*result.Order)}
	if result.RedirectURL != "" {
		body["redirect_url"] = result.RedirectURL
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) approveCancellation(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	order, err := h.orders.ApproveCancellation(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

func (h *Handler) cancellationAct(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	result, err := h.reports.GenerateCancellationAct(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) unlockStorage(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	if err := h.orders.UnlockStorage(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type deliveryRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) setDelivery(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	var req deliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.SetDelivery(c.Request.Context(), principal, id, *req.Enabled)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

type extendRequest struct {
	Months     int  `json:"months" binding:"required"`
	IsExtended bool `json:"is_extended"`
}

func (h *Handler) extendOrder(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.Extend(c.Request.Context(), principal, id, req.Months, req.IsExtended)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

type updateOrderRequest struct {
	Items             []itemPayload    `json:"items"`
	Services          []servicePayload `json:"services"`
	MovingOrders      []movingPayload  `json:"moving_orders"`
	Months            int              `json:"months"`
	IsSelectedMoving  bool             `json:"is_selected_moving"`
	IsSelectedPackage bool             `json:"is_selected_package"`
}

type itemPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CargoMark string  `json:"cargo_mark"`
}

type servicePayload struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Price float64 `json:"price"`
	Count int     `json:"count"`
}

type movingPayload struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	MovingDate string `json:"moving_date"`
	Address    string `json:"address"`
	Direction  string `json:"direction"`
}

func (h *Handler) updateOrder(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := service.UpdateRequest{
		Months:          req.Months,
		SelectedMoving:  req.IsSelectedMoving,
		SelectedPackage: req.IsSelectedPackage,
	}
	for _, item := range req.Items {
		update.Items = append(update.Items, model.Item{
			ID:        parseOptionalID(item.ID),
			Name:      item.Name,
			Length:    item.Length,
			Width:     item.Width,
			Height:    item.Height,
			CargoMark: item.CargoMark,
		})
	}
	for _, svc := range req.Services {
		update.Services = append(update.Services, model.Service{
			ID:    parseOptionalID(svc.ID),
			Type:  model.ParseServiceType(svc.Type),
			Price: svc.Price,
			Count: svc.Count,
		})
	}
	for _, m := range req.MovingOrders {
		movingDate := time.Time{}
		if m.MovingDate != "" {
			parsed, err := parseDate(m.MovingDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moving_date"})
				return
			}
			movingDate = parsed
		}
		update.MovingOrders = append(update.MovingOrders, model.MovingOrder{
			ID:         parseOptionalID(m.ID),
			OrderID:    id,
			Status:     model.MovingStatus(m.Status),
			MovingDate: movingDate,
			Address:    m.Address,
			Direction:  model.MovingDirection(m.Direction),
		})
	}

	order, err := h.orders.UpdateWithServices(c.Request.Context(), principal, id, update)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(*order))
}

func (h *Handler) deleteOrder(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type exportRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) exportRegister(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	result, err := h.reports.GenerateRegister(c.Request.Context(), principal, start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) principalAndID(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrDebtBlocksCancellation):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, model.ErrDesync):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrValidation), errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, cancellation.ErrStepOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrProvider):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func orderJSON(o model.Order) gin.H {
	items := make([]gin.H, len(o.Items))
	for i, item := range o.Items {
		items[i] = gin.H{
			"id":         item.ID.String(),
			"name":       item.Name,
			"length":     item.Length,
			"width":      item.Width,
			"height":     item.Height,
			"volume":     item.VolumeLabel(),
			"cargo_mark": item.CargoMark,
		}
	}
	services := make([]gin.H, len(o.Services))
	for i, svc := range o.Services {
		services[i] = gin.H{
			"id":          svc.ID.String(),
			"type":        string(svc.Type),
			"price":       svc.Price,
			"count":       svc.Count,
			"total_price": svc.TotalPrice,
		}
	}
	moving := make([]gin.H, len(o.MovingOrders))
	for i, m := range o.MovingOrders {
		moving[i] = gin.H{
			"id":          m.ID.String(),
			"status":      string(m.Status),
			"moving_date": m.MovingDate.Format(time.RFC3339),
			"address":     m.Address,
			"direction":   string(m.Direction),
		}
	}
	contracts := make([]gin.H, len(o.Contracts))
	for i, contract := range o.Contracts {
		contracts[i] = gin.H{
			"id":          contract.ID.String(),
			"document_id": contract.DocumentID,
			"status":      string(contract.Status),
			"created_at":  contract.CreatedAt.Format(time.RFC3339),
		}
	}

	body := gin.H{
		"id":                  o.ID.String(),
		"user_id":             o.UserID.String(),
		"status":              string(o.Status),
		"payment_status":      string(o.PaymentStatus),
		"contract_status":     string(o.ContractStatus),
		"cancel_status":       string(o.CancelStatus),
		"created_at":          o.CreatedAt.Format(time.RFC3339),
		"start_date":          o.StartDate.Format("2006-01-02"),
		"end_date":            o.EndDate.Format("2006-01-02"),
		"months":              o.Months,
		"rental_price":        o.RentalPrice,
		"total_price":         o.TotalPrice,
		"discount_amount":     o.DiscountAmount,
		"total_payable":       o.TotalPayable(),
		"is_selected_moving":  o.IsSelectedMoving,
		"is_selected_package": o.IsSelectedPackage,
		"items":               items,
		"services":            services,
		"moving_orders":       moving,
		"contracts":           contracts,
	}
	if o.CancelReason != "" {
		body["cancel_reason"] = o.CancelReason
		body["cancel_comment"] = o.CancelComment
	}
	return body
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseOptionalID(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}
