package entities

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionTypeTrueFalse QuestionType = "TrueFalse"
	QuestionTypeSingle    QuestionType = "Single"
	QuestionTypeMultiple  QuestionType = "Multiple"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeTrueFalse, QuestionTypeSingle, QuestionTypeMultiple:
		return true
	}
	return false
}

// DefaultPassingPercentage is applied when a chapter is created without one.
const DefaultPassingPercentage = 80

type Book struct {
	BookID      string    `gorm:"primaryKey;size:128" json:"bookId" bson:"bookId"`
	Title       string    `gorm:"size:512;not null" json:"title" bson:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty" bson:"description,omitempty"`
	ImageURL    string    `gorm:"size:2048" json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}

// SameContent compares the caller-editable fields.
func (b Book) SameContent(o Book) bool {
	return b.BookID == o.BookID && b.Title == o.Title &&
		b.Description == o.Description && b.ImageURL == o.ImageURL
}

type Part struct {
	PartID    string    `gorm:"primaryKey;size:128" json:"partId" bson:"partId"`
	BookID    string    `gorm:"index;size:128;not null" json:"bookId" bson:"bookId"`
	Title     string    `gorm:"size:512;not null" json:"title" bson:"title"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Part) TableName() string {
	return "parts"
}

func (p Part) SameContent(o Part) bool {
	return p.PartID == o.PartID && p.BookID == o.BookID && p.Title == o.Title
}

type Chapter struct {
	ChapterID           string    `gorm:"primaryKey;size:128" json:"chapterId" bson:"chapterId"`
	BookID              string    `gorm:"index;size:128;not null" json:"bookId" bson:"bookId"`
	PartID              string    `gorm:"index;size:128;not null" json:"partId" bson:"partId"`
	Title               string    `gorm:"size:512;not null" json:"title" bson:"title"`
	Text                string    `gorm:"type:text" json:"text" bson:"text"`
	TotalQuestions      int       `json:"totalQuestions" bson:"totalQuestions"` // derived from questions
	QuestionsPerSession int       `json:"questionsPerSession" bson:"questionsPerSession"`
	Order               int       `gorm:"column:sort_order" json:"order" bson:"order"`
	PassingPercentage   int       `json:"passingPercentage" bson:"passingPercentage"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// SameContent ignores TotalQuestions, which is never written by callers.
func (c Chapter) SameContent(o Chapter) bool {
	return c.ChapterID == o.ChapterID && c.BookID == o.BookID && c.PartID == o.PartID &&
		c.Title == o.Title && c.Text == o.Text &&
		c.QuestionsPerSession == o.QuestionsPerSession && c.Order == o.Order &&
		c.PassingPercentage == o.PassingPercentage
}

type Question struct {
	QuestionID     string                      `gorm:"primaryKey;size:128" json:"questionId" bson:"questionId"`
	ChapterID      string                      `gorm:"index;size:128;not null" json:"chapterId" bson:"chapterId"`
	QuestionText   string                      `gorm:"type:text;not null" json:"questionText" bson:"questionText"`
	QuestionType   QuestionType                `gorm:"size:20;not null" json:"questionType" bson:"questionType"`
	Options        datatypes.JSONSlice[string] `json:"options" bson:"options"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correctAnswers" bson:"correctAnswers"`
	CreatedAt      time.Time                   `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt" bson:"updatedAt"`
}

func (Question) TableName() string {
	return "questions"
}

func (q Question) SameContent(o Question) bool {
	return q.QuestionID == o.QuestionID && q.ChapterID == o.ChapterID &&
		q.QuestionText == o.QuestionText && q.QuestionType == o.QuestionType &&
		slices.Equal(q.Options, o.Options) && slices.Equal(q.CorrectAnswers, o.CorrectAnswers)
}
