package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"campusportal/internal/config"
	"campusportal/internal/eligibility"
)

const (
	contextsCollection = "course_contexts"
	profilesCollection = "student_profiles"
)

type ContextService struct {
	db *firestore.Client
}

var ContextServices *ContextService

func NewContextService(firestoreDB *firestore.Client) *ContextService {
	return &ContextService{db: firestoreDB}
}

func InitContextService() error {
	if config.FirebaseConnection == nil || config.FirebaseConnection.Firestore == nil {
		return errors.New("firebase connection not initialized. Call config.InitFireStore() first")
	}

	ContextServices = NewContextService(config.FirebaseConnection.Firestore)
	slog.Info("Context service initialized successfully")
	return nil
}

func GetContextService() *ContextService {
	if ContextServices == nil {
		slog.Error("Context service not initialized. Call InitContextService() first.")
		return nil
	}
	return ContextServices
}

func contextDocID(studentID, courseID string) string {
	return fmt.Sprintf("%s_%s", studentID, courseID)
}

// ContextsForStudent loads every course context for a student. Interaction
// results live in their own collection; callers attach them via
// AttachResults before evaluation.
func (s *ContextService) ContextsForStudent(ctx context.Context, studentID string) ([]*eligibility.CourseContext, error) {
	iter := s.db.Collection(contextsCollection).Where("student_id", "==", studentID).Documents(ctx)
	defer iter.Stop()

	var contexts []*eligibility.CourseContext
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get course contexts: %w", err)
		}

		var cc eligibility.CourseContext
		if err := doc.DataTo(&cc); err != nil {
			// One malformed course record must not block the others.
			slog.Warn("failed to parse course context", "doc_id", doc.Ref.ID, "error", err)
			continue
		}
		contexts = append(contexts, &cc)
	}

	return contexts, nil
}

// AttachResults hangs the stored interaction results on their contexts so
// the engine sees them as notificationResults.
func AttachResults(contexts []*eligibility.CourseContext, results map[string]map[string]*eligibility.InteractionResult) {
	for _, cc := range contexts {
		cc.NotificationResults = results[cc.CourseID]
	}
}

// UpsertContext writes one course context; the SIS sync worker calls this
// for every enrollment it pulls.
func (s *ContextService) UpsertContext(ctx context.Context, cc *eligibility.CourseContext) error {
	if cc.StudentID == "" || cc.CourseID == "" {
		return errors.New("course context needs student and course ids")
	}
	_, err := s.db.Collection(contextsCollection).Doc(contextDocID(cc.StudentID, cc.CourseID)).Set(ctx, cc)
	if err != nil {
		return fmt.Errorf("failed to upsert course context: %w", err)
	}
	return nil
}

// Profile loads the student-level record used by age and email conditions.
// A missing profile degrades to nil; the engine treats it as never matching
// profile-scoped conditions.
func (s *ContextService) Profile(ctx context.Context, studentID string) (*eligibility.Profile, error) {
	doc, err := s.db.Collection(profilesCollection).Doc(studentID).Get(ctx)
	if err != nil {
		slog.Warn("failed to get student profile", "student_id", studentID, "error", err)
		return nil, nil
	}

	var p eligibility.Profile
	if err := doc.DataTo(&p); err != nil {
		slog.Warn("failed to parse student profile", "student_id", studentID, "error", err)
		return nil, nil
	}
	return &p, nil
}

// UpsertProfile writes a student profile; used by the SIS sync.
func (s *ContextService) UpsertProfile(ctx context.Context, p *eligibility.Profile) error {
	if p.StudentID == "" {
		return errors.New("profile needs a student id")
	}
	_, err := s.db.Collection(profilesCollection).Doc(p.StudentID).Set(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// StudentIDs lists every student that has at least one course context.
// The renewal sweep iterates these.
func (s *ContextService) StudentIDs(ctx context.Context) ([]string, error) {
	iter := s.db.Collection(contextsCollection).Select("student_id").Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]bool)
	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list students: %w", err)
		}

		var cc eligibility.CourseContext
		if err := doc.DataTo(&cc); err != nil {
			continue
		}
		if cc.StudentID != "" && !seen[cc.StudentID] {
			seen[cc.StudentID] = true
			ids = append(ids, cc.StudentID)
		}
	}

	return ids, nil
}
