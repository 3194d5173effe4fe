package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/entities"
)

type BooksController struct {
	store   BookStore
	auditor Auditor
}

func NewBooksController(store BookStore, auditor Auditor) *BooksController {
	return &BooksController{store: store, auditor: auditor}
}

type bookRequest struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	ISBN          *string `json:"isbn"`
	Publisher     string  `json:"publisher"`
	PublishedYear int     `json:"published_year"`
	GenreID       *uint   `json:"genre_id"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
}

func (r bookRequest) book() entities.Book {
	return entities.Book{
		Title:         r.Title,
		Author:        r.Author,
		ISBN:          r.ISBN,
		Publisher:     r.Publisher,
		PublishedYear: r.PublishedYear,
		GenreID:       r.GenreID,
		Description:   r.Description,
		Location:      r.Location,
	}
}

func bindBook(c *gin.Context) (bookRequest, bool) {
	var req bookRequest
	if !bindJSON(c, &req) || !required(c, "title", &req.Title) || !required(c, "author", &req.Author) {
		return req, false
	}
	if req.PublishedYear < 0 {
		respondBadRequest(c, "published_year must not be negative")
		return req, false
	}
	return req, true
}

// ListBooks searches the catalog
// GET /api/books?q=&genre_id=&available=true
func (bc *BooksController) ListBooks(c *gin.Context) {
	genreID, ok := optionalQueryID(c, "genre_id")
	if !ok {
		return
	}
	list, err := bc.store.List(books.Filter{
		Query:         c.Query("q"),
		GenreID:       genreID,
		AvailableOnly: c.Query("available") == "true",
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	if list == nil {
		list = []entities.Book{}
	}
	c.JSON(http.StatusOK, list)
}

// GetBook returns a book with its availability
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.store.GetByID(id)
	if err != nil {
		respondDomainError(c, err, "book", "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook adds a book to the catalog
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	req, ok := bindBook(c)
	if !ok {
		return
	}
	book := req.book()
	if err := bc.store.Create(&book); err != nil {
		respondDomainError(c, err, "book", "create book")
		return
	}
	recordAudit(bc.auditor, c, audit.Entry{
		Type:        entities.AuditEventCatalog,
		Action:      "book_create",
		Description: fmt.Sprintf("Added %q by %s", book.Title, book.Author),
		EntityType:  "book",
		EntityID:    book.ID,
	})
	respondCreated(c, book)
}

// UpdateBook replaces the editable fields of a book
// PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := bindBook(c)
	if !ok {
		return
	}
	book, err := bc.store.Update(id, req.book())
	if err != nil {
		respondDomainError(c, err, "book", "update book")
		return
	}
	recordAudit(bc.auditor, c, audit.Entry{
		Type:       entities.AuditEventCatalog,
		Action:     "book_update",
		EntityType: "book",
		EntityID:   id,
	})
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a book that is not on loan
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.store.Delete(id); err != nil {
		respondDomainError(c, err, "book", "delete book")
		return
	}
	recordAudit(bc.auditor, c, audit.Entry{
		Type:       entities.AuditEventCatalog,
		Action:     "book_delete",
		EntityType: "book",
		EntityID:   id,
	})
	respondSuccess(c, "book deleted")
}
