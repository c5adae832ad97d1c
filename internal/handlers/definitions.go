package handlers

import (
	"net/http"
	"strconv"
	"time"

	"campusportal/internal/db"
	"campusportal/internal/eligibility"
	"campusportal/internal/queue"
	"campusportal/internal/store"

	"github.com/labstack/echo/v4"
)

type PreviewRequest struct {
	Context      eligibility.CourseContext `json:"context"`
	Profile      *eligibility.Profile      `json:"profile"`
	GloballySeen bool                      `json:"globally_seen"`
	Now          string                    `json:"now"`
}

type SyncRequest struct {
	StudentID string `json:"student_id"`
}

func editor(c echo.Context) string {
	if email, ok := c.Get("email").(string); ok && email != "" {
		return email
	}
	if userID, ok := c.Get("user_id").(int64); ok {
		return strconv.FormatInt(userID, 10)
	}
	return "unknown"
}

func pagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func ListDefinitions(c echo.Context) error {
	defs, err := store.GetDefinitionService().ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list definitions"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"definitions": defs})
}

func GetDefinition(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Definition ID is required"})
	}

	def, err := store.GetDefinitionService().GetDefinition(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Definition not found"})
	}
	return c.JSON(http.StatusOK, def)
}

func CreateDefinition(c echo.Context) error {
	var def eligibility.Definition
	if err := c.Bind(&def); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := store.GetDefinitionService().ValidateDefinition(&def); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	created, err := store.GetDefinitionService().CreateDefinition(c.Request().Context(), &def)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create definition"})
	}

	if err := db.RecordDefinitionSnapshot(created, editor(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record definition audit"})
	}

	return c.JSON(http.StatusCreated, created)
}

func UpdateDefinition(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Definition ID is required"})
	}

	var def eligibility.Definition
	if err := c.Bind(&def); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	def.ID = id

	if err := store.GetDefinitionService().ValidateDefinition(&def); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	updated, err := store.GetDefinitionService().UpdateDefinition(c.Request().Context(), &def)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update definition"})
	}

	if err := db.RecordDefinitionSnapshot(updated, editor(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record definition audit"})
	}

	return c.JSON(http.StatusOK, updated)
}

func DeleteDefinition(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Definition ID is required"})
	}

	if err := store.GetDefinitionService().DeleteDefinition(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete definition"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Definition deleted"})
}

func GetDefinitionAudit(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Definition ID is required"})
	}

	page, pageSize := pagination(c)
	snapshots, err := db.GetDefinitionSnapshots(id, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch definition history"})
	}

	return c.JSON(http.StatusOK, snapshots)
}

func GetDefinitionChanges(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Definition ID is required"})
	}

	page, pageSize := pagination(c)
	changes, err := db.GetDefinitionChanges(id, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch definition changes"})
	}

	return c.JSON(http.StatusOK, changes)
}

// PreviewDefinition dry-runs the eligibility check for a definition against a
// caller-supplied context so staff can verify targeting before activating it.
// Nothing is written.
func PreviewDefinition(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Definition ID is required"})
	}

	def, err := store.GetDefinitionService().GetDefinition(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Definition not found"})
	}

	var req PreviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	now := time.Now().UTC()
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "now must be an RFC 3339 timestamp"})
		}
		now = parsed
	}

	result := eligibility.Evaluate(def, &req.Context, req.Profile, req.GloballySeen, now)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"definition_id": def.ID,
		"evaluated_at":  now,
		"result":        result,
	})
}

func TriggerContextSync(c echo.Context) error {
	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	taskID, err := queue.EnqueueContextSync(queue.ContextSyncPayload{
		StudentID:   req.StudentID,
		RequestedBy: editor(c),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to queue sync"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Context sync queued",
		"task_id": taskID,
	})
}

func GetJobStatus(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Task ID is required"})
	}

	info, err := queue.GetTaskStatus(taskID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Task not found"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"task_id": info.ID,
		"queue":   info.Queue,
		"type":    info.Type,
		"state":   info.State.String(),
	})
}
