package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/genres"
	"github.com/mrlokans/librarium/internal/entities"
)

type GenresController struct {
	store   GenreStore
	auditor Auditor
}

func NewGenresController(store GenreStore, auditor Auditor) *GenresController {
	return &GenresController{store: store, auditor: auditor}
}

type genreRequest struct {
	Name string `json:"name"`
}

// ListGenres returns every genre with the number of books assigned to it
// GET /api/genres
func (gc *GenresController) ListGenres(c *gin.Context) {
	list, err := gc.store.List()
	if err != nil {
		respondInternalError(c, err, "list genres")
		return
	}
	if list == nil {
		list = []genres.GenreWithCount{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/genres/:id
func (gc *GenresController) GetGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	genre, err := gc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "genre", "get genre")
		return
	}
	c.JSON(http.StatusOK, genre)
}

// POST /api/genres
func (gc *GenresController) CreateGenre(c *gin.Context) {
	var req genreRequest
	if !bindJSON(c, &req) || !required(c, "name", &req.Name) {
		return
	}
	genre, err := gc.store.Create(req.Name)
	if err != nil {
		respondDomainError(c, err, "genre", "create genre")
		return
	}
	recordAudit(gc.auditor, c, audit.Entry{
		Type:       entities.AuditEventCatalog,
		Action:     "genre_create",
		EntityType: "genre",
		EntityID:   genre.ID,
	})
	respondCreated(c, genre)
}

// PUT /api/genres/:id
func (gc *GenresController) UpdateGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req genreRequest
	if !bindJSON(c, &req) || !required(c, "name", &req.Name) {
		return
	}
	genre, err := gc.store.Update(id, req.Name)
	if err != nil {
		respondDomainError(c, err, "genre", "update genre")
		return
	}
	recordAudit(gc.auditor, c, audit.Entry{
		Type:       entities.AuditEventCatalog,
		Action:     "genre_update",
		EntityType: "genre",
		EntityID:   genre.ID,
	})
	c.JSON(http.StatusOK, genre)
}

// DELETE /api/genres/:id
func (gc *GenresController) DeleteGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := gc.store.Delete(id); err != nil {
		respondDomainError(c, err, "genre", "delete genre")
		return
	}
	recordAudit(gc.auditor, c, audit.Entry{
		Type:       entities.AuditEventCatalog,
		Action:     "genre_delete",
		EntityType: "genre",
		EntityID:   id,
	})
	respondSuccess(c, "genre deleted")
}
