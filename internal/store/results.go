package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"campusportal/internal/config"
	"campusportal/internal/eligibility"
	"campusportal/internal/security"
)

const (
	resultsCollection   = "notification_results"
	seenStateCollection = "student_notification_state"
)

// ResultDoc is one interaction record as persisted. The embedded
// InteractionResult is exactly what the engine reads back on the next
// evaluation cycle.
type ResultDoc struct {
	StudentID    string `firestore:"student_id"`
	CourseID     string `firestore:"course_id"`
	DefinitionID string `firestore:"definition_id"`
	eligibility.InteractionResult
	UpdatedAt time.Time `firestore:"updated_at"`
}

type ResultsService struct {
	db *firestore.Client
}

var ResultsServices *ResultsService

func NewResultsService(firestoreDB *firestore.Client) *ResultsService {
	return &ResultsService{db: firestoreDB}
}

func InitResultsService() error {
	if config.FirebaseConnection == nil || config.FirebaseConnection.Firestore == nil {
		return errors.New("firebase connection not initialized. Call config.InitFireStore() first")
	}

	ResultsServices = NewResultsService(config.FirebaseConnection.Firestore)
	slog.Info("Results service initialized successfully")
	return nil
}

func GetResultsService() *ResultsService {
	if ResultsServices == nil {
		slog.Error("Results service not initialized. Call InitResultsService() first.")
		return nil
	}
	return ResultsServices
}

func resultDocID(studentID, courseID, definitionID string) string {
	return fmt.Sprintf("%s_%s_%s", studentID, courseID, definitionID)
}

// ResultsForStudent loads every interaction record for a student, grouped by
// course id then definition id, ready to hang on the course contexts.
func (s *ResultsService) ResultsForStudent(ctx context.Context, studentID string) (map[string]map[string]*eligibility.InteractionResult, error) {
	iter := s.db.Collection(resultsCollection).Where("student_id", "==", studentID).Documents(ctx)
	defer iter.Stop()

	results := make(map[string]map[string]*eligibility.InteractionResult)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get interaction results: %w", err)
		}

		var rd ResultDoc
		if err := doc.DataTo(&rd); err != nil {
			slog.Warn("failed to parse interaction result", "doc_id", doc.Ref.ID, "error", err)
			continue
		}

		byDef, ok := results[rd.CourseID]
		if !ok {
			byDef = make(map[string]*eligibility.InteractionResult)
			results[rd.CourseID] = byDef
		}
		res := rd.InteractionResult
		byDef[rd.DefinitionID] = &res
	}

	return results, nil
}

// ResultsForDefinition loads every student's interaction record for one
// definition. Used by the renewal sweep.
func (s *ResultsService) ResultsForDefinition(ctx context.Context, definitionID string) ([]ResultDoc, error) {
	iter := s.db.Collection(resultsCollection).Where("definition_id", "==", definitionID).Documents(ctx)
	defer iter.Stop()

	var docs []ResultDoc
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get interaction results: %w", err)
		}

		var rd ResultDoc
		if err := doc.DataTo(&rd); err != nil {
			slog.Warn("failed to parse interaction result", "doc_id", doc.Ref.ID, "error", err)
			continue
		}
		docs = append(docs, rd)
	}

	return docs, nil
}

// RecordSeen marks one definition viewed on one course. Any precomputed
// renewal date is dropped: it was derived from the previous interaction.
func (s *ResultsService) RecordSeen(ctx context.Context, studentID, courseID, definitionID string, now time.Time) error {
	_, err := s.db.Collection(resultsCollection).Doc(resultDocID(studentID, courseID, definitionID)).Set(ctx, map[string]interface{}{
		"student_id":        studentID,
		"course_id":         courseID,
		"definition_id":     definitionID,
		"has_seen":          true,
		"last_seen":         now,
		"next_renewal_date": firestore.Delete,
		"updated_at":        now,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to record seen: %w", err)
	}
	return nil
}

// RecordAcknowledge marks one notification acknowledged on one course.
func (s *ResultsService) RecordAcknowledge(ctx context.Context, studentID, courseID, definitionID string, now time.Time) error {
	_, err := s.db.Collection(resultsCollection).Doc(resultDocID(studentID, courseID, definitionID)).Set(ctx, map[string]interface{}{
		"student_id":        studentID,
		"course_id":         courseID,
		"definition_id":     definitionID,
		"has_seen":          true,
		"has_acknowledged":  true,
		"acknowledged_at":   now,
		"last_seen":         now,
		"next_renewal_date": firestore.Delete,
		"updated_at":        now,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to record acknowledgement: %w", err)
	}
	return nil
}

// SubmitSurvey appends a survey submission. Answers are encrypted before
// anything is written; the stored submission carries only ciphertext.
func (s *ResultsService) SubmitSurvey(ctx context.Context, studentID, courseID, definitionID string, answers map[string]string, now time.Time) error {
	encrypted, err := security.EncryptAnswers(answers)
	if err != nil {
		return fmt.Errorf("failed to encrypt survey answers: %w", err)
	}

	submissionKey := strconv.FormatInt(now.Unix(), 10)
	_, err = s.db.Collection(resultsCollection).Doc(resultDocID(studentID, courseID, definitionID)).Set(ctx, map[string]interface{}{
		"student_id":     studentID,
		"course_id":      courseID,
		"definition_id":  definitionID,
		"has_seen":       true,
		"completed":      true,
		"completed_at":   now,
		"last_submitted": now,
		"submissions": map[string]interface{}{
			submissionKey: map[string]interface{}{
				"submitted_at":      now,
				"encrypted_answers": encrypted,
			},
		},
		"next_renewal_date": firestore.Delete,
		"updated_at":        now,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to record survey submission: %w", err)
	}
	return nil
}

// SetNextRenewal stores a precomputed next-eligible instant; the engine
// honors it over its own recomputation on the next pass.
func (s *ResultsService) SetNextRenewal(ctx context.Context, studentID, courseID, definitionID string, next time.Time) error {
	_, err := s.db.Collection(resultsCollection).Doc(resultDocID(studentID, courseID, definitionID)).Update(ctx, []firestore.Update{
		{Path: "next_renewal_date", Value: next},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to set next renewal date: %w", err)
	}
	return nil
}

// SeenState returns the student-level seen flags kept outside per-course
// results; callers hand the map to the engine as its seenMap input.
func (s *ResultsService) SeenState(ctx context.Context, studentID string) (map[string]bool, error) {
	doc, err := s.db.Collection(seenStateCollection).Doc(studentID).Get(ctx)
	if err != nil {
		// A student with no state document simply has nothing marked seen.
		return map[string]bool{}, nil
	}

	var state struct {
		Seen map[string]bool `firestore:"seen"`
	}
	if err := doc.DataTo(&state); err != nil {
		slog.Warn("failed to parse seen state", "student_id", studentID, "error", err)
		return map[string]bool{}, nil
	}
	if state.Seen == nil {
		state.Seen = map[string]bool{}
	}
	return state.Seen, nil
}

// MarkSeen sets the student-level seen flag for one definition.
func (s *ResultsService) MarkSeen(ctx context.Context, studentID, definitionID string) error {
	_, err := s.db.Collection(seenStateCollection).Doc(studentID).Set(ctx, map[string]interface{}{
		"seen": map[string]bool{definitionID: true},
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to mark seen: %w", err)
	}
	return nil
}

// MarkAllSeen flags every supplied definition seen for the student and
// stamps has_seen on each existing per-course record in one bulk pass.
func (s *ResultsService) MarkAllSeen(ctx context.Context, studentID string, definitionIDs []string, now time.Time) error {
	seen := make(map[string]bool, len(definitionIDs))
	for _, id := range definitionIDs {
		seen[id] = true
	}
	_, err := s.db.Collection(seenStateCollection).Doc(studentID).Set(ctx, map[string]interface{}{
		"seen": seen,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to mark all seen: %w", err)
	}

	iter := s.db.Collection(resultsCollection).Where("student_id", "==", studentID).Documents(ctx)
	defer iter.Stop()

	bulkWriter := s.db.BulkWriter(ctx)
	defer bulkWriter.End()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to get interaction results: %w", err)
		}

		_, err = bulkWriter.Update(doc.Ref, []firestore.Update{
			{Path: "has_seen", Value: true},
			{Path: "last_seen", Value: now},
			{Path: "updated_at", Value: now},
		})
		if err != nil {
			return fmt.Errorf("failed to add update to bulk writer: %w", err)
		}
	}

	bulkWriter.Flush()
	return nil
}

// ReencryptSubmissions rewrites every stored submission's ciphertext under
// the currently active KMS key. The rotation worker calls this after the
// active key changes; KMS resolves each old key from its ciphertext blob, so
// decryption works mid-rotation.
func (s *ResultsService) ReencryptSubmissions(ctx context.Context) (int, error) {
	iter := s.db.Collection(resultsCollection).Documents(ctx)
	defer iter.Stop()

	reencrypted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return reencrypted, fmt.Errorf("failed to list interaction results: %w", err)
		}

		var rd ResultDoc
		if err := doc.DataTo(&rd); err != nil {
			slog.Warn("failed to parse interaction result", "doc_id", doc.Ref.ID, "error", err)
			continue
		}

		var updates []firestore.Update
		for key, sub := range rd.Submissions {
			if sub.EncryptedAnswers == "" {
				continue
			}
			answers, err := security.DecryptAnswers(sub.EncryptedAnswers)
			if err != nil {
				slog.Warn("failed to decrypt submission during rotation", "doc_id", doc.Ref.ID, "submission", key, "error", err)
				continue
			}
			fresh, err := security.EncryptAnswers(answers)
			if err != nil {
				return reencrypted, fmt.Errorf("failed to re-encrypt submission: %w", err)
			}
			updates = append(updates, firestore.Update{
				FieldPath: firestore.FieldPath{"submissions", key, "encrypted_answers"},
				Value:     fresh,
			})
		}
		if len(updates) == 0 {
			continue
		}

		updates = append(updates, firestore.Update{Path: "updated_at", Value: time.Now()})
		if _, err := doc.Ref.Update(ctx, updates); err != nil {
			return reencrypted, fmt.Errorf("failed to rewrite submissions: %w", err)
		}
		reencrypted += len(updates) - 1
	}

	return reencrypted, nil
}

// DecryptSubmission returns the plaintext answers of one stored submission
// for staff review.
func (s *ResultsService) DecryptSubmission(sub eligibility.Submission) (map[string]string, error) {
	if sub.EncryptedAnswers == "" {
		return sub.Answers, nil
	}
	return security.DecryptAnswers(sub.EncryptedAnswers)
}
