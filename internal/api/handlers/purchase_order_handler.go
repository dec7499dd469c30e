package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/po/internal/models"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/ponumber"
	"greendrake/po/internal/services"
)

// PurchaseOrderHandler exposes the editing session to a local front end.
type PurchaseOrderHandler struct {
	session services.ISessionService
	logger  *zap.Logger
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler.
func NewPurchaseOrderHandler(session services.ISessionService, logger *zap.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{session: session, logger: logger}
}

func notifications(messages ...string) []string {
	out := []string{}
	for _, m := range messages {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// GetWorkingOrder handles GET /v1/po
func (h *PurchaseOrderHandler) GetWorkingOrder(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session.Snapshot()})
}

// PatchWorkingOrder handles PATCH /v1/po
func (h *PurchaseOrderHandler) PatchWorkingOrder(c *gin.Context) {
	var patch services.HeaderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.session.Update(patch), "notifications": notifications()})
}

// NewOrder handles POST /v1/po/new
func (h *PurchaseOrderHandler) NewOrder(c *gin.Context) {
	state := h.session.NewOrder(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"data":          state,
		"notifications": notifications(services.NewOrderMessage),
	})
}

// SaveOrder handles POST /v1/po/save. It answers 201 for a new order and 200 for an update.
func (h *PurchaseOrderHandler) SaveOrder(c *gin.Context) {
	out := h.session.Save(c.Request.Context())
	status := http.StatusOK
	if out.Created() {
		status = http.StatusCreated
	}
	h.logger.Debug("order saved", zap.String("poNumber", out.PoNumber), zap.Stringer("result", out.Result))
	c.JSON(status, gin.H{
		"data":          h.session.Snapshot(),
		"result":        out.Result.String(),
		"poNumber":      out.PoNumber,
		"notifications": notifications(out.Message),
	})
}

// AddItem handles POST /v1/po/items
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	item := h.session.AddItem()
	c.JSON(http.StatusCreated, gin.H{"item": item, "data": h.session.Snapshot(), "notifications": notifications()})
}

func itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item index"})
		return 0, false
	}
	return index, true
}

// UpdateItem handles PUT /v1/po/items/:index
func (h *PurchaseOrderHandler) UpdateItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	var item models.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if !h.session.UpdateItem(index, item) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item index out of range"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.session.Snapshot(), "notifications": notifications()})
}

// RemoveItem handles DELETE /v1/po/items/:index
func (h *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	if !h.session.RemoveItem(index) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item index out of range"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.session.Snapshot(), "notifications": notifications()})
}

// ListOrders handles GET /v1/orders
func (h *PurchaseOrderHandler) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session.SavedOrders()})
}

func poNumberParam(c *gin.Context) (string, bool) {
	poNumber := c.Param("poNumber")
	if _, _, err := ponumber.Parse(poNumber); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order number"})
		return "", false
	}
	return poNumber, true
}

// LoadOrder handles POST /v1/orders/:poNumber/load
func (h *PurchaseOrderHandler) LoadOrder(c *gin.Context) {
	poNumber, ok := poNumberParam(c)
	if !ok {
		return
	}
	out := h.session.Load(c.Request.Context(), poNumber)
	if !out.Found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found", "notifications": notifications(out.Message)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.session.Snapshot(), "notifications": notifications(out.Message)})
}

// DeleteOrder handles DELETE /v1/orders/:poNumber. The caller confirms with ?confirm=true
// after asking the user; without it nothing is deleted.
func (h *PurchaseOrderHandler) DeleteOrder(c *gin.Context) {
	poNumber, ok := poNumberParam(c)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	out := h.session.Delete(c.Request.Context(), poNumber, notify.StaticConfirmer(confirmed))

	switch out.Status {
	case services.DeleteNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found", "notifications": notifications(out.Message)})
	case services.DeleteDeclined:
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Deletion requires confirmation",
			"confirm": services.DeletePrompt(poNumber),
		})
	default:
		c.JSON(http.StatusOK, gin.H{"data": h.session.SavedOrders(), "notifications": notifications(out.Message)})
	}
}
