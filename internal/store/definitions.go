// Package store is the portal's persistence gateway: Firestore-backed
// services for notification definitions, per-course interaction results and
// course contexts. The eligibility engine never touches Firestore itself;
// everything it reads flows through here.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"campusportal/internal/config"
	"campusportal/internal/eligibility"
)

const definitionsCollection = "notification_definitions"

type DefinitionService struct {
	db       *firestore.Client
	validate *validator.Validate
}

var DefinitionServices *DefinitionService

func NewDefinitionService(firestoreDB *firestore.Client) *DefinitionService {
	return &DefinitionService{
		db:       firestoreDB,
		validate: validator.New(),
	}
}

func InitDefinitionService() error {
	if config.FirebaseConnection == nil || config.FirebaseConnection.Firestore == nil {
		return errors.New("firebase connection not initialized. Call config.InitFireStore() first")
	}

	DefinitionServices = NewDefinitionService(config.FirebaseConnection.Firestore)
	slog.Info("Definition service initialized successfully")
	return nil
}

func GetDefinitionService() *DefinitionService {
	if DefinitionServices == nil {
		slog.Error("Definition service not initialized. Call InitDefinitionService() first.")
		return nil
	}
	return DefinitionServices
}

// ValidateDefinition checks an authored definition before it is stored.
// Surveys must carry questions, and multiple-choice questions need options.
// An empty Conditions block is allowed: it is the documented never-matches
// state staff use for drafts.
func (s *DefinitionService) ValidateDefinition(def *eligibility.Definition) error {
	if err := s.validate.Struct(def); err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}

	sched := eligibility.Normalize(def)
	if sched.Category == eligibility.CategorySurvey && len(def.SurveyQuestions) == 0 {
		return errors.New("survey definitions need at least one question")
	}
	for _, q := range def.SurveyQuestions {
		if q.ID == "" {
			return errors.New("survey questions need an id")
		}
		if q.QuestionType == eligibility.QuestionMultipleChoice && len(q.Options) == 0 {
			return fmt.Errorf("multiple choice question %s has no options", q.ID)
		}
	}
	return nil
}

func (s *DefinitionService) CreateDefinition(ctx context.Context, def *eligibility.Definition) (*eligibility.Definition, error) {
	if err := s.ValidateDefinition(def); err != nil {
		return nil, err
	}

	def.ID = uuid.New().String()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt

	_, err := s.db.Collection(definitionsCollection).Doc(def.ID).Set(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("failed to store definition: %w", err)
	}

	return def, nil
}

func (s *DefinitionService) UpdateDefinition(ctx context.Context, def *eligibility.Definition) (*eligibility.Definition, error) {
	if def.ID == "" {
		return nil, errors.New("definition id is required")
	}
	if err := s.ValidateDefinition(def); err != nil {
		return nil, err
	}

	existing, err := s.GetDefinition(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now()

	_, err = s.db.Collection(definitionsCollection).Doc(def.ID).Set(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("failed to update definition: %w", err)
	}

	return def, nil
}

func (s *DefinitionService) GetDefinition(ctx context.Context, id string) (*eligibility.Definition, error) {
	doc, err := s.db.Collection(definitionsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}

	var def eligibility.Definition
	if err := doc.DataTo(&def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	return &def, nil
}

// ListActive returns every definition the feed and the renewal sweep should
// consider.
func (s *DefinitionService) ListActive(ctx context.Context) ([]*eligibility.Definition, error) {
	iter := s.db.Collection(definitionsCollection).Where("active", "==", true).Documents(ctx)
	defer iter.Stop()

	var defs []*eligibility.Definition
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions: %w", err)
		}

		var def eligibility.Definition
		if err := doc.DataTo(&def); err != nil {
			// One malformed definition must not sink the rest of the feed.
			slog.Warn("failed to parse definition", "doc_id", doc.Ref.ID, "error", err)
			continue
		}
		defs = append(defs, &def)
	}

	return defs, nil
}

func (s *DefinitionService) ListAll(ctx context.Context) ([]*eligibility.Definition, error) {
	iter := s.db.Collection(definitionsCollection).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var defs []*eligibility.Definition
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions: %w", err)
		}

		var def eligibility.Definition
		if err := doc.DataTo(&def); err != nil {
			slog.Warn("failed to parse definition", "doc_id", doc.Ref.ID, "error", err)
			continue
		}
		defs = append(defs, &def)
	}

	return defs, nil
}

func (s *DefinitionService) DeleteDefinition(ctx context.Context, id string) error {
	_, err := s.db.Collection(definitionsCollection).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	return nil
}
