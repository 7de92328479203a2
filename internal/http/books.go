package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

type createBookRequest struct {
	BookID      string `json:"bookId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// BooksController serves /api/book.
type BooksController struct {
	reader  library.TreeReader
	mutator ContentMutator
}

func NewBooksController(reader library.TreeReader, mutator ContentMutator) *BooksController {
	return &BooksController{reader: reader, mutator: mutator}
}

// GetAllBooks handles GET /api/book/all
// Returns every book with its parts, chapters and questions.
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	books, err := bc.reader.AllBooks(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, books)
}

// GetBook handles GET /api/book/:bookId
func (bc *BooksController) GetBook(c *gin.Context) {
	book, err := bc.reader.Book(c.Request.Context(), c.Param("bookId"))
	if err != nil {
		respondStoreError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/book
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.mutator.CreateBook(c.Request.Context(), entities.Book{
		BookID:      req.BookID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondStoreError(c, err, "create book")
		return
	}
	respondWith(c, http.StatusCreated, "Book created successfully", "book", book)
}

// UpdateBook handles PUT /api/book/:bookId
// Only title, description and imageUrl can change.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	var patch library.BookPatch
	if !bindJSON(c, &patch) {
		return
	}

	book, err := bc.mutator.UpdateBook(c.Request.Context(), c.Param("bookId"), patch)
	if err != nil {
		respondStoreError(c, err, "update book")
		return
	}
	respondWith(c, http.StatusOK, "Book updated successfully", "book", book)
}

// DeleteBook handles DELETE /api/book/:bookId
func (bc *BooksController) DeleteBook(c *gin.Context) {
	if err := bc.mutator.DeleteBook(c.Request.Context(), c.Param("bookId")); err != nil {
		respondStoreError(c, err, "delete book")
		return
	}
	respondSuccess(c, "Book and related data deleted successfully")
}
