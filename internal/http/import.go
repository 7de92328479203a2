package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/importers"
	"github.com/mrlokans/booklearn/internal/tasks"
)

type importRequest struct {
	DryRun bool `json:"dryRun" form:"dryRun"`
	// Wait runs the import in the request even when a task queue exists.
	Wait bool `json:"wait" form:"wait"`
}

// ImportController serves /api/import.
type ImportController struct {
	importer   WorkbookImporter
	queue      TaskQueue
	sourcePath string
}

// NewImportController creates an import controller for the workbook at
// sourcePath. queue may be nil, in which case imports run in the request.
func NewImportController(importer WorkbookImporter, queue TaskQueue, sourcePath string) *ImportController {
	return &ImportController{importer: importer, queue: queue, sourcePath: sourcePath}
}

// ImportData handles POST /api/import/import-data
// With a task queue the import is enqueued and 202 is returned; otherwise
// it runs synchronously and the summary is returned.
func (ic *ImportController) ImportData(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if ic.queue != nil && !req.Wait {
		id, err := ic.queue.Enqueue(tasks.ImportWorkbookTask{Path: ic.sourcePath, DryRun: req.DryRun})
		if err != nil {
			respondInternalError(c, err, "enqueue import")
			return
		}
		respondAccepted(c, "Import enqueued", gin.H{"taskId": id})
		return
	}

	result, err := ic.importer.ImportFile(c.Request.Context(), ic.sourcePath, importers.Options{DryRun: req.DryRun})
	if err != nil {
		log.Printf("Import of %s failed: %v", ic.sourcePath, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Error importing data", Code: codeInternal, Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Data imported successfully.", Data: result})
}
