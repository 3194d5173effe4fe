package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/inventory"
	"github.com/mrlokans/librarium/internal/entities"
)

type InventoryController struct {
	store             InventoryStore
	auditor           Auditor
	lowStockThreshold int
}

func NewInventoryController(store InventoryStore, auditor Auditor, lowStockThreshold int) *InventoryController {
	return &InventoryController{
		store:             store,
		auditor:           auditor,
		lowStockThreshold: lowStockThreshold,
	}
}

type inventoryRequest struct {
	Name       string                 `json:"name"`
	CategoryID uint                   `json:"category_id"`
	Quantity   int                    `json:"quantity"`
	Condition  entities.ItemCondition `json:"condition"`
	Location   string                 `json:"location"`
	Notes      string                 `json:"notes"`
}

func bindInventoryItem(c *gin.Context) (entities.InventoryItem, bool) {
	var req inventoryRequest
	if !bindJSON(c, &req) || !required(c, "name", &req.Name) {
		return entities.InventoryItem{}, false
	}
	if req.CategoryID == 0 {
		respondBadRequest(c, "category_id is required")
		return entities.InventoryItem{}, false
	}
	if req.Quantity < 0 {
		respondBadRequest(c, "quantity must not be negative")
		return entities.InventoryItem{}, false
	}
	if req.Condition == "" {
		req.Condition = entities.ItemConditionGood
	}
	if !req.Condition.Valid() {
		respondBadRequest(c, "condition must be one of good, damaged, lost")
		return entities.InventoryItem{}, false
	}
	return entities.InventoryItem{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Quantity:   req.Quantity,
		Condition:  req.Condition,
		Location:   strings.TrimSpace(req.Location),
		Notes:      req.Notes,
	}, true
}

// ListItems returns inventory items
// GET /api/inventory?category_id=&q=&condition=
func (ic *InventoryController) ListItems(c *gin.Context) {
	categoryID, ok := optionalQueryID(c, "category_id")
	if !ok {
		return
	}
	condition := entities.ItemCondition(c.Query("condition"))
	if condition != "" && !condition.Valid() {
		respondBadRequest(c, "invalid condition")
		return
	}
	items, err := ic.store.List(inventory.Filter{
		CategoryID: categoryID,
		Query:      c.Query("q"),
		Condition:  condition,
	})
	if err != nil {
		respondInternalError(c, err, "list inventory")
		return
	}
	respondItems(c, items)
}

// LowStock returns items at or below the low-stock threshold
// GET /api/inventory/low-stock
func (ic *InventoryController) LowStock(c *gin.Context) {
	items, err := ic.store.LowStock(ic.lowStockThreshold)
	if err != nil {
		respondInternalError(c, err, "low stock")
		return
	}
	respondItems(c, items)
}

func respondItems(c *gin.Context, items []entities.InventoryItem) {
	if items == nil {
		items = []entities.InventoryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// GET /api/inventory/:id
func (ic *InventoryController) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := ic.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "inventory item", "get inventory item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateItem adds an item and bumps its category's item count
// POST /api/inventory
func (ic *InventoryController) CreateItem(c *gin.Context) {
	item, ok := bindInventoryItem(c)
	if !ok {
		return
	}
	if err := ic.store.Create(&item); err != nil {
		respondDomainError(c, err, "inventory item", "create inventory item")
		return
	}
	recordAudit(ic.auditor, c, audit.Entry{
		Type:        entities.AuditEventInventory,
		Action:      "item_create",
		Description: fmt.Sprintf("Added %d x %s", item.Quantity, item.Name),
		EntityType:  "inventory_item",
		EntityID:    item.ID,
	})
	respondCreated(c, item)
}

// UpdateItem replaces an item, moving it between categories if needed
// PUT /api/inventory/:id
func (ic *InventoryController) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	upd, ok := bindInventoryItem(c)
	if !ok {
		return
	}
	item, err := ic.store.Update(id, upd)
	if err != nil {
		respondDomainError(c, err, "inventory item", "update inventory item")
		return
	}
	recordAudit(ic.auditor, c, audit.Entry{
		Type:       entities.AuditEventInventory,
		Action:     "item_update",
		EntityType: "inventory_item",
		EntityID:   id,
	})
	c.JSON(http.StatusOK, item)
}

// DELETE /api/inventory/:id
func (ic *InventoryController) DeleteItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ic.store.Delete(id); err != nil {
		respondDomainError(c, err, "inventory item", "delete inventory item")
		return
	}
	recordAudit(ic.auditor, c, audit.Entry{
		Type:       entities.AuditEventInventory,
		Action:     "item_delete",
		EntityType: "inventory_item",
		EntityID:   id,
	})
	respondSuccess(c, "inventory item deleted")
}
