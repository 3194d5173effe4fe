package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/entities"
)

type CategoriesController struct {
	store   CategoryStore
	auditor Auditor
}

func NewCategoriesController(store CategoryStore, auditor Auditor) *CategoriesController {
	return &CategoriesController{store: store, auditor: auditor}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories returns every category with its item count
// GET /api/categories
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	categories, err := cc.store.List()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	if categories == nil {
		categories = []entities.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategory returns a single category
// GET /api/categories/:id
func (cc *CategoriesController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := cc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "category", "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory creates a new category
// POST /api/categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) || !required(c, "name", &req.Name) {
		return
	}

	category, err := cc.store.Create(req.Name, req.Description)
	if err != nil {
		respondDomainError(c, err, "category", "create category")
		return
	}

	recordAudit(cc.auditor, c, audit.Entry{
		Type:        entities.AuditEventInventory,
		Action:      "category_create",
		Description: fmt.Sprintf("Created category %q", category.Name),
		EntityType:  "category",
		EntityID:    category.ID,
	})
	respondCreated(c, category)
}

// UpdateCategory renames or re-describes a category
// PUT /api/categories/:id
func (cc *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req) || !required(c, "name", &req.Name) {
		return
	}

	category, err := cc.store.Update(id, req.Name, req.Description)
	if err != nil {
		respondDomainError(c, err, "category", "update category")
		return
	}

	recordAudit(cc.auditor, c, audit.Entry{
		Type:       entities.AuditEventInventory,
		Action:     "category_update",
		EntityType: "category",
		EntityID:   category.ID,
	})
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes an empty category
// DELETE /api/categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.store.Delete(id); err != nil {
		respondDomainError(c, err, "category", "delete category")
		return
	}

	recordAudit(cc.auditor, c, audit.Entry{
		Type:       entities.AuditEventInventory,
		Action:     "category_delete",
		EntityType: "category",
		EntityID:   id,
	})
	respondSuccess(c, "category deleted")
}
