package entities

import (
	"time"

	"gorm.io/datatypes"
)

// UserProgress is stored as one row/document per user with the per-book
// progress embedded. Version is bumped on every write and used for
// compare-and-swap updates.
type UserProgress struct {
	UserID       string                            `gorm:"primaryKey;size:128" json:"userId" bson:"userId"`
	BookProgress datatypes.JSONSlice[BookProgress] `json:"bookProgress" bson:"bookProgress"`
	Version      int64                             `gorm:"not null;default:0" json:"version" bson:"version"`
	CreatedAt    time.Time                         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time                         `json:"updatedAt" bson:"updatedAt"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

type BookProgress struct {
	BookID            string       `json:"bookId" bson:"bookId"`
	CompletedChapters []string     `json:"completedChapters" bson:"completedChapters"`
	QuizResults       []QuizResult `json:"quizResults" bson:"quizResults"`
}

type QuizResult struct {
	QuizID      string       `json:"quizId" bson:"quizId"`
	Score       float64      `json:"score" bson:"score"`
	Completed   bool         `json:"completed" bson:"completed"`
	CompletedAt time.Time    `json:"completedAt" bson:"completedAt"`
	Answers     []QuizAnswer `json:"answers" bson:"answers"`
}

type QuizAnswer struct {
	QuestionID       string `json:"questionId" bson:"questionId"`
	SelectedOptionID string `json:"selectedOptionId" bson:"selectedOptionId"`
	IsCorrect        bool   `json:"isCorrect" bson:"isCorrect"`
}

// Book returns the progress entry for bookID, or nil.
func (p *UserProgress) Book(bookID string) *BookProgress {
	for i := range p.BookProgress {
		if p.BookProgress[i].BookID == bookID {
			return &p.BookProgress[i]
		}
	}
	return nil
}
