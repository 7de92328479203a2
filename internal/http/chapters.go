package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/library"
)

// ChaptersController serves /api/chapters.
type ChaptersController struct {
	reader  library.TreeReader
	mutator ContentMutator
}

func NewChaptersController(reader library.TreeReader, mutator ContentMutator) *ChaptersController {
	return &ChaptersController{reader: reader, mutator: mutator}
}

// GetAllChapters handles GET /api/chapters/all
// Every chapter is returned with its questions.
func (cc *ChaptersController) GetAllChapters(c *gin.Context) {
	chapters, err := cc.reader.AllChapters(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "list chapters")
		return
	}
	c.JSON(http.StatusOK, chapters)
}

// GetChapter handles GET /api/chapters/:chapterId
func (cc *ChaptersController) GetChapter(c *gin.Context) {
	chapter, err := cc.reader.Chapter(c.Request.Context(), c.Param("chapterId"))
	if err != nil {
		respondStoreError(c, err, "get chapter")
		return
	}
	c.JSON(http.StatusOK, chapter)
}

// CreateChapter handles POST /api/chapters
// totalQuestions in the body is ignored; passingPercentage defaults to 80.
func (cc *ChaptersController) CreateChapter(c *gin.Context) {
	var req library.NewChapter
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := cc.mutator.CreateChapter(c.Request.Context(), req)
	if err != nil {
		respondStoreError(c, err, "create chapter")
		return
	}
	respondWith(c, http.StatusCreated, "Chapter created successfully", "chapter", chapter)
}

// UpdateChapter handles PUT /api/chapters/:chapterId
func (cc *ChaptersController) UpdateChapter(c *gin.Context) {
	var patch library.ChapterPatch
	if !bindJSON(c, &patch) {
		return
	}

	chapter, err := cc.mutator.UpdateChapter(c.Request.Context(), c.Param("chapterId"), patch)
	if err != nil {
		respondStoreError(c, err, "update chapter")
		return
	}
	respondWith(c, http.StatusOK, "Chapter updated successfully", "chapter", chapter)
}

// DeleteChapter handles DELETE /api/chapters/:chapterId
func (cc *ChaptersController) DeleteChapter(c *gin.Context) {
	if err := cc.mutator.DeleteChapter(c.Request.Context(), c.Param("chapterId")); err != nil {
		respondStoreError(c, err, "delete chapter")
		return
	}
	respondSuccess(c, "Chapter and associated questions deleted successfully")
}
