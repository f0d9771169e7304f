package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/service"
)

// BillingHandlers contains HTTP handlers for the WSAA and WSFE operations
type BillingHandlers struct {
	authService    *service.AuthService
	billingService *service.BillingService
}

// NewBillingHandlers creates new billing handlers
func NewBillingHandlers(authService *service.AuthService, billingService *service.BillingService) *BillingHandlers {
	return &BillingHandlers{
		authService:    authService,
		billingService: billingService,
	}
}

func (h *BillingHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports the FEDummy answer
func (h *BillingHandlers) Status(c *gin.Context) {
	status, err := h.billingService.ServerStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Ticket makes sure a valid access ticket is cached. Credentials are not
// returned.
func (h *BillingHandlers) Ticket(c *gin.Context) {
	res := h.authService.GetValidTicket(c.Request.Context())
	if !res.Success {
		c.JSON(http.StatusBadGateway, res.Outcome)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         res.Message,
		"service":         res.Ticket.Service,
		"expiration_time": res.Ticket.ExpirationTime.Format(time.RFC3339),
	})
}

func (h *BillingHandlers) Totals(c *gin.Context) {
	total, err := h.billingService.QueryTotals(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reg_x_req": total})
}

func (h *BillingHandlers) LastVoucher(c *gin.Context) {
	cbteTipo, ok := voucherType(c)
	if !ok {
		return
	}
	last, err := h.billingService.QueryLastVoucherNumber(c.Request.Context(), cbteTipo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cbte_tipo": cbteTipo, "cbte_nro": last})
}

func (h *BillingHandlers) NextVoucher(c *gin.Context) {
	cbteTipo, ok := voucherType(c)
	if !ok {
		return
	}
	next, err := h.billingService.NextVoucherNumber(c.Request.Context(), cbteTipo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cbte_tipo": cbteTipo, "cbte_nro": next})
}

// Authorize submits a FeCAEReq. A rejected voucher is still a 200; the
// caller reads success from the body.
func (h *BillingHandlers) Authorize(c *gin.Context) {
	var req core.FeCAEReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.billingService.AuthorizeInvoice(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BillingHandlers) PointsOfSale(c *gin.Context) {
	points, err := h.billingService.QueryPointsOfSale(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points_of_sale": points})
}

func voucherType(c *gin.Context) (int, bool) {
	cbteTipo, err := strconv.Atoi(c.Param("type"))
	if err != nil || cbteTipo <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid voucher type"})
		return 0, false
	}
	return cbteTipo, true
}

func writeError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrAuthentication), errors.Is(err, core.ErrTransport):
		statusCode = http.StatusBadGateway
	case errors.Is(err, core.ErrRemote):
		statusCode = http.StatusUnprocessableEntity
	}
	c.JSON(statusCode, gin.H{"success": false, "message": err.Error()})
}
