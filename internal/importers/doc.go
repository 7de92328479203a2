// Package importers loads learning content from spreadsheets.
//
// # Architecture
//
// The import pipeline follows a simple flow:
//
//	Workbook → Converter → Dataset → Pipeline → library.ContentStore
//
// A Converter turns its source into a Dataset of books, parts, chapters
// and questions, remembering the sheet and row of each record. The
// Pipeline validates every record, upserts by natural key in parent-first
// order and finally recomputes totalQuestions for every chapter it
// touched. Counters in the source are never trusted.
//
// # Workbook Layout
//
// Sheets are classified by name ("book", "part", "chapter", "question",
// case-insensitive substring). The first row holds column names, matched
// exactly:
//
//	Books:     BookID, Title, [Description], [ImageURL]
//	Parts:     PartID, BookID, Title
//	Chapters:  ChapterID, BookID, PartID, Title, Text,
//	           [QuestionsPerSession], [Order], [PassingPercentage]
//	Questions: QuestionID, ChapterID, QuestionText, Type,
//	           [Options], [CorrectAnswers]
//
// Options and CorrectAnswers hold a JSON array or a "|"/newline separated
// list.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(store, notifier, auditService)
//	result, err := pipeline.ImportFile(ctx, "Structured_Book_Data.xlsx", importers.Options{})
//
// Unchanged records are not rewritten, so importing the same workbook
// twice reports everything unchanged the second time.
package importers
