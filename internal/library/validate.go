package library

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mrlokans/booklearn/internal/entities"
)

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, field+" is required")
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateBook checks the fields required to store a book.
func ValidateBook(b *entities.Book) error {
	return firstErr(required("bookId", b.BookID), required("title", b.Title))
}

// ValidatePart checks the fields required to store a part.
func ValidatePart(p *entities.Part) error {
	return firstErr(required("partId", p.PartID), required("bookId", p.BookID), required("title", p.Title))
}

// ValidateChapter checks the fields required to store a chapter.
func ValidateChapter(c *entities.Chapter) error {
	return firstErr(
		required("chapterId", c.ChapterID),
		required("bookId", c.BookID),
		required("partId", c.PartID),
		required("title", c.Title),
		required("text", c.Text),
		nonNegative("questionsPerSession", c.QuestionsPerSession),
		nonNegative("order", c.Order),
		percentage(c.PassingPercentage),
	)
}

// ValidateQuestion checks type, options and correct answers. Each correct
// answer must be either the text of an option or a 0-based option index.
func ValidateQuestion(q *entities.Question) error {
	if err := firstErr(
		required("questionId", q.QuestionID),
		required("chapterId", q.ChapterID),
		required("questionText", q.QuestionText),
	); err != nil {
		return err
	}
	if !q.QuestionType.Valid() {
		return invalid("questionType", "questionType must be one of TrueFalse, Single, Multiple")
	}
	if len(q.Options) == 0 {
		return invalid("options", "options must not be empty")
	}
	if len(q.CorrectAnswers) == 0 {
		return invalid("correctAnswers", "correctAnswers must not be empty")
	}
	for _, answer := range q.CorrectAnswers {
		if !matchesOption(answer, q.Options) {
			return invalid("correctAnswers", "correct answer "+strconv.Quote(answer)+" does not match any option")
		}
	}
	return nil
}

func matchesOption(answer string, options []string) bool {
	if slices.Contains(options, answer) {
		return true
	}
	idx, err := strconv.Atoi(strings.TrimSpace(answer))
	return err == nil && idx >= 0 && idx < len(options)
}

func nonNegative(field string, v int) error {
	if v < 0 {
		return invalid(field, field+" must not be negative")
	}
	return nil
}

func percentage(v int) error {
	if v < 0 || v > 100 {
		return invalid("passingPercentage", "passingPercentage must be between 0 and 100")
	}
	return nil
}

func nonBlank(field string, v *string) error {
	if v != nil && strings.TrimSpace(*v) == "" {
		return invalid(field, field+" must not be empty")
	}
	return nil
}
