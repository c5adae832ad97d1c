package handlers

import (
	"errors"
	"net/http"
	"time"

	"campusportal/internal/auth"
	"campusportal/internal/eligibility"
	"campusportal/internal/store"

	"github.com/labstack/echo/v4"
)

type InteractionRequest struct {
	CourseID string `json:"course_id"`
}

type SurveyResponseRequest struct {
	CourseID string            `json:"course_id"`
	Answers  map[string]string `json:"answers"`
}

// resolveStudentID picks the student whose feed is being read. Students are
// pinned to their own id; parents and staff may name one with ?student_id=.
func resolveStudentID(c echo.Context) (string, error) {
	role, _ := c.Get("role").(string)
	own, _ := c.Get("student_id").(string)

	if role == auth.RoleStudent {
		if own == "" {
			return "", echo.NewHTTPError(http.StatusForbidden, "No student record linked to this account")
		}
		return own, nil
	}

	if requested := c.QueryParam("student_id"); requested != "" {
		return requested, nil
	}
	if own != "" {
		return own, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "student_id is required")
}

func GetNotificationFeed(c echo.Context) error {
	studentID, err := resolveStudentID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	defs, err := store.GetDefinitionService().ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load notification definitions"})
	}

	contexts, err := store.GetContextService().ContextsForStudent(ctx, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load course contexts"})
	}

	results, err := store.GetResultsService().ResultsForStudent(ctx, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load notification history"})
	}
	store.AttachResults(contexts, results)

	profile, err := store.GetContextService().Profile(ctx, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load student profile"})
	}

	seen, err := store.GetResultsService().SeenState(ctx, studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load seen state"})
	}

	verdicts := eligibility.EvaluateAll(defs, contexts, profile, seen, now)

	includeAll := c.QueryParam("include_all") == "true"
	feed := make(map[string][]eligibility.CourseResult, len(verdicts))
	for courseID, items := range verdicts {
		kept := make([]eligibility.CourseResult, 0, len(items))
		for _, item := range items {
			if includeAll || item.ShouldDisplay {
				kept = append(kept, item)
			}
		}
		if len(kept) > 0 {
			feed[courseID] = kept
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"student_id":   studentID,
		"evaluated_at": now,
		"courses":      feed,
	})
}

func MarkNotificationSeen(c echo.Context) error {
	studentID, err := resolveStudentID(c)
	if err != nil {
		return err
	}

	definitionID := c.Param("id")
	if definitionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Notification ID is required"})
	}

	var req InteractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Course ID is required"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	if _, err := store.GetDefinitionService().GetDefinition(ctx, definitionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
	}

	if err := store.GetResultsService().RecordSeen(ctx, studentID, req.CourseID, definitionID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record interaction"})
	}
	if err := store.GetResultsService().MarkSeen(ctx, studentID, definitionID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record interaction"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as seen"})
}

func AcknowledgeNotification(c echo.Context) error {
	studentID, err := resolveStudentID(c)
	if err != nil {
		return err
	}

	definitionID := c.Param("id")
	if definitionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Notification ID is required"})
	}

	var req InteractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Course ID is required"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	def, err := store.GetDefinitionService().GetDefinition(ctx, definitionID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
	}
	if eligibility.Normalize(def).Category != eligibility.CategoryNotification {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Only notifications can be acknowledged"})
	}

	if err := store.GetResultsService().RecordAcknowledge(ctx, studentID, req.CourseID, definitionID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record acknowledgement"})
	}
	if err := store.GetResultsService().MarkSeen(ctx, studentID, definitionID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record acknowledgement"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Notification acknowledged"})
}

func SubmitSurveyResponse(c echo.Context) error {
	studentID, err := resolveStudentID(c)
	if err != nil {
		return err
	}

	definitionID := c.Param("id")
	if definitionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Survey ID is required"})
	}

	var req SurveyResponseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Course ID is required"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	def, err := store.GetDefinitionService().GetDefinition(ctx, definitionID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Survey not found"})
	}
	if eligibility.Normalize(def).Category != eligibility.CategorySurvey {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Responses are only accepted for surveys"})
	}

	if err := validateAnswers(def.SurveyQuestions, req.Answers); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := store.GetResultsService().SubmitSurvey(ctx, studentID, req.CourseID, definitionID, req.Answers, now); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store survey response"})
	}
	if err := store.GetResultsService().MarkSeen(ctx, studentID, definitionID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store survey response"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Survey response recorded"})
}

func GetSeenState(c echo.Context) error {
	studentID, err := resolveStudentID(c)
	if err != nil {
		return err
	}

	seen, err := store.GetResultsService().SeenState(c.Request().Context(), studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load seen state"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"student_id": studentID,
		"seen":       seen,
	})
}

func MarkAllNotificationsSeen(c echo.Context) error {
	studentID, err := resolveStudentID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	defs, err := store.GetDefinitionService().ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load notification definitions"})
	}

	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		ids = append(ids, def.ID)
	}

	if err := store.GetResultsService().MarkAllSeen(ctx, studentID, ids, now); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record interactions"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "All notifications marked as seen"})
}

func validateAnswers(questions []eligibility.SurveyQuestion, answers map[string]string) error {
	if len(answers) == 0 {
		return errors.New("answers are required")
	}

	byID := make(map[string]eligibility.SurveyQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for id, answer := range answers {
		q, ok := byID[id]
		if !ok {
			return errors.New("answer references an unknown question")
		}
		if q.QuestionType == eligibility.QuestionMultipleChoice {
			valid := false
			for _, opt := range q.Options {
				if opt == answer {
					valid = true
					break
				}
			}
			if !valid {
				return errors.New("answer is not one of the question's options")
			}
		}
	}

	for _, q := range questions {
		if _, ok := answers[q.ID]; !ok {
			return errors.New("all questions must be answered")
		}
	}

	return nil
}
