package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

type createQuestionRequest struct {
	QuestionID     string                `json:"questionId"`
	ChapterID      string                `json:"chapterId"`
	QuestionText   string                `json:"questionText"`
	QuestionType   entities.QuestionType `json:"questionType"`
	Options        []string              `json:"options"`
	CorrectAnswers []string              `json:"correctAnswers"`
}

// QuestionsController serves /api/questions.
type QuestionsController struct {
	store   library.ContentReader
	mutator ContentMutator
}

func NewQuestionsController(store library.ContentReader, mutator ContentMutator) *QuestionsController {
	return &QuestionsController{store: store, mutator: mutator}
}

// GetQuestions handles GET /api/questions
// An optional chapterId query parameter restricts the list to one chapter.
func (qc *QuestionsController) GetQuestions(c *gin.Context) {
	var (
		questions []entities.Question
		err       error
	)
	if chapterID := c.Query("chapterId"); chapterID != "" {
		questions, err = qc.store.ListQuestionsByChapter(c.Request.Context(), chapterID)
	} else {
		questions, err = qc.store.ListQuestions(c.Request.Context())
	}
	if err != nil {
		respondStoreError(c, err, "list questions")
		return
	}
	if questions == nil {
		questions = []entities.Question{}
	}
	c.JSON(http.StatusOK, questions)
}

// GetQuestion handles GET /api/questions/:questionId
func (qc *QuestionsController) GetQuestion(c *gin.Context) {
	question, err := qc.store.GetQuestion(c.Request.Context(), c.Param("questionId"))
	if err != nil {
		respondStoreError(c, err, "get question")
		return
	}
	c.JSON(http.StatusOK, question)
}

// CreateQuestion handles POST /api/questions
// The owning chapter's totalQuestions grows by one with the insert.
func (qc *QuestionsController) CreateQuestion(c *gin.Context) {
	var req createQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := qc.mutator.CreateQuestion(c.Request.Context(), entities.Question{
		QuestionID:     req.QuestionID,
		ChapterID:      req.ChapterID,
		QuestionText:   req.QuestionText,
		QuestionType:   req.QuestionType,
		Options:        datatypes.JSONSlice[string](req.Options),
		CorrectAnswers: datatypes.JSONSlice[string](req.CorrectAnswers),
	})
	if err != nil {
		respondStoreError(c, err, "create question")
		return
	}
	respondWith(c, http.StatusCreated, "Question created successfully", "question", question)
}

// UpdateQuestion handles PUT /api/questions/:questionId
func (qc *QuestionsController) UpdateQuestion(c *gin.Context) {
	var patch library.QuestionPatch
	if !bindJSON(c, &patch) {
		return
	}

	question, err := qc.mutator.UpdateQuestion(c.Request.Context(), c.Param("questionId"), patch)
	if err != nil {
		respondStoreError(c, err, "update question")
		return
	}
	respondWith(c, http.StatusOK, "Question updated successfully", "question", question)
}

// DeleteQuestion handles DELETE /api/questions/:questionId
func (qc *QuestionsController) DeleteQuestion(c *gin.Context) {
	if err := qc.mutator.DeleteQuestion(c.Request.Context(), c.Param("questionId")); err != nil {
		respondStoreError(c, err, "delete question")
		return
	}
	respondSuccess(c, "Question deleted successfully")
}
