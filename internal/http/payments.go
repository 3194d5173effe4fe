package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	txstore "github.com/mrlokans/librarium/internal/database/payments"
	"github.com/mrlokans/librarium/internal/entities"
	"github.com/mrlokans/librarium/internal/payments"
)

// maxNotificationSize bounds webhook bodies.
const maxNotificationSize = 64 << 10

type PaymentsController struct {
	service PaymentService
	txs     TransactionReader
	auditor Auditor
}

func NewPaymentsController(service PaymentService, txs TransactionReader, auditor Auditor) *PaymentsController {
	return &PaymentsController{service: service, txs: txs, auditor: auditor}
}

type checkoutRequest struct {
	Purpose     entities.PaymentPurpose `json:"purpose" binding:"required"`
	ReferenceID uint                    `json:"reference_id" binding:"required"`
}

// Checkout opens a gateway transaction for a membership fee or an event booking
// POST /api/payments/checkout
func (pc *PaymentsController) Checkout(c *gin.Context) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := pc.service.Checkout(c.Request.Context(), visitorID(c), req.Purpose, req.ReferenceID)
	entry := audit.Entry{
		Type:     entities.AuditEventPayment,
		Action:   "payment_checkout",
		Metadata: map[string]any{"purpose": req.Purpose, "reference_id": req.ReferenceID},
		Err:      err,
	}
	if tx != nil {
		entry.EntityType = "transaction"
		entry.EntityID = tx.ID
	}
	recordAudit(pc.auditor, c, entry)
	if err != nil {
		respondDomainError(c, err, string(req.Purpose), "checkout")
		return
	}
	respondCreated(c, tx)
}

// Notification receives gateway status callbacks. Unsigned or mis-signed
// bodies answer 401.
// POST /api/payments/notifications
func (pc *PaymentsController) Notification(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationSize))
	if err != nil {
		respondBadRequest(c, "failed to read notification")
		return
	}
	n, err := payments.ParseNotification(body)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	tx, err := pc.service.HandleNotification(c.Request.Context(), n)
	entry := audit.Entry{
		Type:        entities.AuditEventPayment,
		Action:      "payment_notification",
		Description: "Order " + n.OrderID + ": " + n.TransactionStatus,
		Err:         err,
	}
	if tx != nil {
		entry.EntityType = "transaction"
		entry.EntityID = tx.ID
	}
	recordAudit(pc.auditor, c, entry)
	if err != nil {
		respondDomainError(c, err, "transaction", "payment notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": tx.OrderID, "status": tx.Status})
}

// load fetches a transaction the caller may see. Visitors only see their own.
func (pc *PaymentsController) load(c *gin.Context) (*entities.Transaction, bool) {
	tx, err := pc.txs.GetByOrderID(c.Param("order_id"))
	if err != nil {
		respondDomainError(c, err, "transaction", "get transaction")
		return nil, false
	}
	if !canAccessVisitorRecord(c, tx.VisitorID) {
		respondNotFound(c, "transaction")
		return nil, false
	}
	return tx, true
}

// GET /api/payments/:order_id
func (pc *PaymentsController) GetTransaction(c *gin.Context) {
	tx, ok := pc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tx)
}

// SyncTransaction pulls the current order status from the gateway
// POST /api/payments/:order_id/sync
func (pc *PaymentsController) SyncTransaction(c *gin.Context) {
	tx, ok := pc.load(c)
	if !ok {
		return
	}
	updated, err := pc.service.Sync(c.Request.Context(), tx.OrderID)
	recordAudit(pc.auditor, c, audit.Entry{
		Type:       entities.AuditEventPayment,
		Action:     "payment_sync",
		EntityType: "transaction",
		EntityID:   tx.ID,
		Err:        err,
	})
	if err != nil {
		respondDomainError(c, err, "transaction", "sync transaction")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListTransactions pages through transactions
// GET /api/payments?status=&purpose=&visitor_id=&limit=&offset=
func (pc *PaymentsController) ListTransactions(c *gin.Context) {
	visitor, ok := optionalQueryID(c, "visitor_id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c)
	list, total, err := pc.txs.List(txstore.Filter{
		Status:    entities.TransactionStatus(c.Query("status")),
		Purpose:   entities.PaymentPurpose(c.Query("purpose")),
		VisitorID: visitor,
	}, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list transactions")
		return
	}
	if list == nil {
		list = []entities.Transaction{}
	}
	respondPage(c, list, total, limit, offset)
}
