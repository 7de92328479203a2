package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

type createPartRequest struct {
	PartID string `json:"partId"`
	BookID string `json:"bookId"`
	Title  string `json:"title"`
}

// PartsController serves /api/parts.
type PartsController struct {
	store   library.ContentReader
	mutator ContentMutator
}

func NewPartsController(store library.ContentReader, mutator ContentMutator) *PartsController {
	return &PartsController{store: store, mutator: mutator}
}

// GetAllParts handles GET /api/parts/all
// An optional bookId query parameter restricts the list to one book.
func (pc *PartsController) GetAllParts(c *gin.Context) {
	var (
		parts []entities.Part
		err   error
	)
	if bookID := c.Query("bookId"); bookID != "" {
		parts, err = pc.store.ListPartsByBook(c.Request.Context(), bookID)
	} else {
		parts, err = pc.store.ListParts(c.Request.Context())
	}
	if err != nil {
		respondStoreError(c, err, "list parts")
		return
	}
	if parts == nil {
		parts = []entities.Part{}
	}
	c.JSON(http.StatusOK, parts)
}

// GetPart handles GET /api/parts/:partId
func (pc *PartsController) GetPart(c *gin.Context) {
	part, err := pc.store.GetPart(c.Request.Context(), c.Param("partId"))
	if err != nil {
		respondStoreError(c, err, "get part")
		return
	}
	c.JSON(http.StatusOK, part)
}

// CreatePart handles POST /api/parts
func (pc *PartsController) CreatePart(c *gin.Context) {
	var req createPartRequest
	if !bindJSON(c, &req) {
		return
	}

	part, err := pc.mutator.CreatePart(c.Request.Context(), entities.Part{
		PartID: req.PartID,
		BookID: req.BookID,
		Title:  req.Title,
	})
	if err != nil {
		respondStoreError(c, err, "create part")
		return
	}
	respondWith(c, http.StatusCreated, "Part created successfully", "part", part)
}

// UpdatePart handles PUT /api/parts/:partId
func (pc *PartsController) UpdatePart(c *gin.Context) {
	var patch library.PartPatch
	if !bindJSON(c, &patch) {
		return
	}

	part, err := pc.mutator.UpdatePart(c.Request.Context(), c.Param("partId"), patch)
	if err != nil {
		respondStoreError(c, err, "update part")
		return
	}
	respondWith(c, http.StatusOK, "Part updated successfully", "part", part)
}

// DeletePart handles DELETE /api/parts/:partId
func (pc *PartsController) DeletePart(c *gin.Context) {
	if err := pc.mutator.DeletePart(c.Request.Context(), c.Param("partId")); err != nil {
		respondStoreError(c, err, "delete part")
		return
	}
	respondSuccess(c, "Part and related data deleted successfully")
}
