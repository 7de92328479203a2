package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// QuestionRecounter recomputes chapter totalQuestions from question rows.
// Implemented by library.Service.
type QuestionRecounter interface {
	RecountQuestions(ctx context.Context, chapterIDs ...string) (int, error)
}

// RecountQuestionsTask repairs totalQuestions for the listed chapters, or
// for every chapter when the list is empty.
type RecountQuestionsTask struct {
	ChapterIDs []string `json:"chapter_ids,omitempty"`
}

// Config returns the queue configuration for recount tasks.
func (t RecountQuestionsTask) Config() backlite.QueueConfig {
	cfg := activeConfig()
	return backlite.QueueConfig{
		Name:        "recount_questions",
		MaxAttempts: cfg.MaxRetries,
		Backoff:     cfg.RetryDelay,
		Timeout:     5 * time.Minute,
		Retention:   retention(cfg),
	}
}

// RecountQuestionsProcessor creates a processor function for RecountQuestionsTask.
func RecountQuestionsProcessor(recounter QuestionRecounter) backlite.QueueProcessor[RecountQuestionsTask] {
	return func(ctx context.Context, task RecountQuestionsTask) error {
		if recounter == nil {
			return fmt.Errorf("recounter not configured")
		}

		fixed, err := recounter.RecountQuestions(ctx, task.ChapterIDs...)
		if err != nil {
			return fmt.Errorf("recount questions: %w", err)
		}

		log.Printf("[TASK] Recounted questions: %d chapters corrected", fixed)
		return nil
	}
}

// NewRecountQuestionsQueue creates a backlite queue for recount tasks.
func NewRecountQuestionsQueue(recounter QuestionRecounter) backlite.Queue {
	return backlite.NewQueue(RecountQuestionsProcessor(recounter))
}
