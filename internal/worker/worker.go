package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"campusportal/internal/eligibility"
	"campusportal/internal/queue"
	"campusportal/internal/sis"
	"campusportal/internal/store"
)

const sweepInterval = 24 * time.Hour

type Worker struct {
	server *asynq.Server
}

func NewWorker() *Worker {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: redisAddr,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.QueueContextSync:  10,
				queue.QueueRenewalSweep: 2,
				queue.QueueKMSRotation:  1,
			},
		},
	)

	return &Worker{
		server: server,
	}
}

func (w *Worker) Start(ctx context.Context) error {

	mux := asynq.NewServeMux()

	mux.HandleFunc(queue.QueueContextSync, w.handleContextSync)
	mux.HandleFunc(queue.QueueRenewalSweep, w.handleRenewalSweep)
	mux.HandleFunc(queue.QueueKMSRotation, w.HandleKMSRotation)

	slog.Info("Starting worker",
		"queues", []string{queue.QueueContextSync, queue.QueueRenewalSweep, queue.QueueKMSRotation},
		"concurrency", 10)

	if err := w.server.Start(mux); err != nil {
		return err
	}

	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.server.Stop()
	slog.Info("Worker stopped")
	return nil
}

// handleContextSync pulls enrollments from the student information system and
// mirrors them into Firestore so the eligibility engine reads local documents
// instead of calling the SIS on every request. An empty StudentID syncs the
// whole roster.
func (w *Worker) handleContextSync(ctx context.Context, t *asynq.Task) error {
	var payload queue.ContextSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	apiKey := os.Getenv("SIS_API_KEY")
	if apiKey == "" {
		slog.Error("SIS_API_KEY is not set, cannot sync contexts", "requested_by", payload.RequestedBy)
		return fmt.Errorf("SIS_API_KEY is not set")
	}

	contextService := store.GetContextService()

	var students []sis.Student
	if payload.StudentID != "" {
		students = []sis.Student{{ID: payload.StudentID}}
	} else {
		roster, err := sis.GetStudents(apiKey)
		if err != nil {
			slog.Error("Failed to fetch student roster", "error", err)
			return err
		}
		students = roster
	}

	synced := 0
	for _, student := range students {
		if student.Email != "" || student.Birthdate != "" {
			profile := &eligibility.Profile{
				StudentID: student.ID,
				Email:     student.Email,
				Birthdate: student.Birthdate,
			}
			if err := contextService.UpsertProfile(ctx, profile); err != nil {
				slog.Error("Failed to store student profile", "error", err, "student_id", student.ID)
				return err
			}
		}

		enrollments, err := sis.GetEnrollments(apiKey, student.ID)
		if err != nil {
			slog.Error("Failed to fetch enrollments", "error", err, "student_id", student.ID)
			return err
		}

		for _, enrollment := range enrollments {
			cc := contextFromEnrollment(enrollment)
			if err := contextService.UpsertContext(ctx, cc); err != nil {
				slog.Error("Failed to store course context",
					"error", err,
					"student_id", enrollment.StudentID,
					"course_id", enrollment.CourseID)
				return err
			}
			synced++
		}
	}

	slog.Info("Successfully synced course contexts",
		"students", len(students),
		"contexts", synced,
		"requested_by", payload.RequestedBy)

	return nil
}

func contextFromEnrollment(e sis.Enrollment) *eligibility.CourseContext {
	return &eligibility.CourseContext{
		StudentID:         e.StudentID,
		CourseID:          e.CourseID,
		StudentTypeValue:  e.StudentType,
		DiplomaMonthValue: e.DiplomaMonth,
		SchoolYearValue:   e.SchoolYear,
		StatusValue:       e.Status,
		ScheduleEndDate:   e.ScheduleEndDate,
		Categories:        e.Categories,
	}
}

// handleRenewalSweep precomputes next_renewal_date on stored interaction
// results for every active repeating definition, then schedules the next
// sweep. The precomputed date takes precedence at read time, so the sweep
// keeps renewal checks cheap without changing their outcome.
func (w *Worker) handleRenewalSweep(ctx context.Context, t *asynq.Task) error {
	var payload queue.RenewalSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	definitionService := store.GetDefinitionService()
	resultsService := store.GetResultsService()

	defs, err := definitionService.ListActive(ctx)
	if err != nil {
		slog.Error("Failed to list active definitions", "error", err)
		return err
	}

	now := time.Now().UTC()
	updated := 0

	for _, def := range defs {
		sched := eligibility.Normalize(def)
		if sched.Frequency == eligibility.FrequencyOneTime {
			continue
		}

		results, err := resultsService.ResultsForDefinition(ctx, def.ID)
		if err != nil {
			slog.Error("Failed to list results for definition", "error", err, "definition_id", def.ID)
			return err
		}

		for i := range results {
			doc := &results[i]
			next, ok := eligibility.NextEligible(def, &doc.InteractionResult, now)
			if !ok {
				continue
			}
			if doc.NextRenewalDate != nil && doc.NextRenewalDate.Equal(next) {
				continue
			}
			if err := resultsService.SetNextRenewal(ctx, doc.StudentID, doc.CourseID, doc.DefinitionID, next); err != nil {
				slog.Error("Failed to store next renewal date",
					"error", err,
					"student_id", doc.StudentID,
					"definition_id", doc.DefinitionID)
				return err
			}
			updated++
		}
	}

	slog.Info("Successfully completed renewal sweep",
		"definitions", len(defs),
		"updated", updated)

	if _, err := queue.ScheduleRenewalSweep(sweepInterval); err != nil {
		slog.Error("Failed to schedule next renewal sweep", "error", err)
		return err
	}

	return nil
}
