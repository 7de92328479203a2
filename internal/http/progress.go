package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

type createProgressRequest struct {
	UserID       string                  `json:"userId"`
	BookProgress []entities.BookProgress `json:"bookProgress"`
}

type replaceProgressRequest struct {
	BookProgress []entities.BookProgress `json:"bookProgress"`
}

// ProgressController serves /api/user-progress.
type ProgressController struct {
	tracker ProgressTracker
}

func NewProgressController(tracker ProgressTracker) *ProgressController {
	return &ProgressController{tracker: tracker}
}

// CreateProgress handles POST /api/user-progress
func (pc *ProgressController) CreateProgress(c *gin.Context) {
	var req createProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	progress, err := pc.tracker.Create(c.Request.Context(), req.UserID, req.BookProgress)
	if err != nil {
		respondStoreError(c, err, "create user progress")
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "User progress created", Data: progress})
}

// GetProgress handles GET /api/user-progress/:userId
func (pc *ProgressController) GetProgress(c *gin.Context) {
	progress, err := pc.tracker.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondStoreError(c, err, "get user progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}

// ReplaceProgress handles PUT /api/user-progress/:userId
// The whole bookProgress list is replaced.
func (pc *ProgressController) ReplaceProgress(c *gin.Context) {
	var req replaceProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.BookProgress == nil {
		respondBadRequest(c, "bookProgress is required")
		return
	}

	progress, err := pc.tracker.Replace(c.Request.Context(), c.Param("userId"), req.BookProgress)
	if err != nil {
		respondStoreError(c, err, "update user progress")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "User progress updated successfully", Data: progress})
}

// DeleteProgress handles DELETE /api/user-progress/:userId
func (pc *ProgressController) DeleteProgress(c *gin.Context) {
	if err := pc.tracker.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		respondStoreError(c, err, "delete user progress")
		return
	}
	respondSuccess(c, "User progress deleted successfully")
}

// StartBook handles POST /api/user-progress/:userId/book/:bookId
func (pc *ProgressController) StartBook(c *gin.Context) {
	progress, err := pc.tracker.StartBook(c.Request.Context(), c.Param("userId"), c.Param("bookId"))
	if err != nil {
		respondStoreError(c, err, "start book")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Book progress started", Data: progress})
}

// MarkChapterCompleted handles PATCH /api/user-progress/:userId/book/:bookId/chapter/:chapterId
func (pc *ProgressController) MarkChapterCompleted(c *gin.Context) {
	progress, err := pc.tracker.MarkChapterCompleted(c.Request.Context(), c.Param("userId"), c.Param("bookId"), c.Param("chapterId"))
	if err != nil {
		respondStoreError(c, err, "mark chapter completed")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Chapter marked as completed", Data: progress})
}

// RecordQuizResult handles PATCH /api/user-progress/:userId/book/:bookId/quiz/:quizId
// completedAt is set by the server.
func (pc *ProgressController) RecordQuizResult(c *gin.Context) {
	var req library.QuizSubmission
	if !bindJSON(c, &req) {
		return
	}

	progress, err := pc.tracker.RecordQuizResult(c.Request.Context(), c.Param("userId"), c.Param("bookId"), c.Param("quizId"), req)
	if err != nil {
		respondStoreError(c, err, "update quiz result")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz result updated", Data: progress})
}
