package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/booklearn/internal/tasks"
)

// TasksController handles task queue endpoints.
type TasksController struct {
	queue      TaskQueue
	sourcePath string
}

// NewTasksController creates a TasksController. sourcePath is the workbook
// imported by import_workbook tasks.
func NewTasksController(queue TaskQueue, sourcePath string) *TasksController {
	return &TasksController{queue: queue, sourcePath: sourcePath}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// RunTaskRequest is the optional body of POST /api/tasks/:type/run.
type RunTaskRequest struct {
	DryRun        bool     `json:"dryRun"`
	ChapterIDs    []string `json:"chapterIds"`
	RetentionDays int      `json:"retentionDays"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"taskTypes": []TaskTypeInfo{
			{Type: tasks.ImportWorkbookTask{}.Config().Name, Description: "Import the configured workbook"},
			{Type: tasks.RecountQuestionsTask{}.Config().Name, Description: "Recompute totalQuestions from question rows"},
			{Type: tasks.CleanupAuditEventsTask{}.Config().Name, Description: "Delete old audit events"},
		},
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "Task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusName(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	var task backlite.Task
	switch taskType {
	case tasks.ImportWorkbookTask{}.Config().Name:
		task = tasks.ImportWorkbookTask{Path: tc.sourcePath, DryRun: req.DryRun}
	case tasks.RecountQuestionsTask{}.Config().Name:
		task = tasks.RecountQuestionsTask{ChapterIDs: req.ChapterIDs}
	case tasks.CleanupAuditEventsTask{}.Config().Name:
		task = tasks.CleanupAuditEventsTask{RetentionDays: req.RetentionDays}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.queue.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":  id,
		"type":    taskType,
		"message": "task enqueued",
	})
}
