package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"campusportal/internal/eligibility"
)

// DefinitionSnapshot is one audited version of a notification definition.
type DefinitionSnapshot struct {
	ID           int64           `db:"id" json:"id"`
	DefinitionID string          `db:"definition_id" json:"definition_id"`
	SnapshotTime time.Time       `db:"snapshot_time" json:"snapshot_time"`
	EditedBy     string          `db:"edited_by" json:"edited_by"`
	Content      json.RawMessage `db:"content" json:"content"`
	Hash         string          `db:"hash" json:"hash"`
}

// DefinitionChange is one field-level difference between two consecutive
// snapshots of a definition.
type DefinitionChange struct {
	ID            int64     `db:"id" json:"id"`
	DefinitionID  string    `db:"definition_id" json:"definition_id"`
	OldSnapshotID *int64    `db:"old_snapshot_id" json:"old_snapshot_id"`
	NewSnapshotID int64     `db:"new_snapshot_id" json:"new_snapshot_id"`
	ChangeType    string    `db:"change_type" json:"change_type"`
	Path          string    `db:"path" json:"path"`
	OldValue      *string   `db:"old_value" json:"old_value"`
	NewValue      *string   `db:"new_value" json:"new_value"`
	ChangeTime    time.Time `db:"change_time" json:"change_time"`
}

const (
	ChangeAdded    = "added"
	ChangeRemoved  = "removed"
	ChangeModified = "modified"
)

// RecordDefinitionSnapshot stores a new audited version of a definition and
// diffs it against the previous snapshot, writing one change row per
// differing field. A byte-identical edit records nothing.
func RecordDefinitionSnapshot(def *eligibility.Definition, editedBy string) error {
	content, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %v", err)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	var prev DefinitionSnapshot
	havePrev := true
	err = DB.Get(&prev, `
		SELECT * FROM definition_snapshots
		WHERE definition_id = $1
		ORDER BY snapshot_time DESC
		LIMIT 1
	`, def.ID)
	if err == sql.ErrNoRows {
		havePrev = false
	} else if err != nil {
		return fmt.Errorf("failed to load previous snapshot: %v", err)
	}

	if havePrev && prev.Hash == hash {
		return nil
	}

	var newID int64
	err = DB.QueryRow(`
		INSERT INTO definition_snapshots (definition_id, edited_by, content, hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, def.ID, editedBy, content, hash).Scan(&newID)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %v", err)
	}

	if !havePrev {
		return nil
	}

	changes, err := diffSnapshots(prev.Content, content)
	if err != nil {
		slog.Error("failed to diff definition snapshots", "definition_id", def.ID, "error", err)
		return nil
	}

	for _, ch := range changes {
		_, err = DB.Exec(`
			INSERT INTO definition_changes
				(definition_id, old_snapshot_id, new_snapshot_id, change_type, path, old_value, new_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, def.ID, prev.ID, newID, ch.ChangeType, ch.Path, ch.OldValue, ch.NewValue)
		if err != nil {
			return fmt.Errorf("failed to store change: %v", err)
		}
	}

	return nil
}

// GetDefinitionSnapshots returns the audit history of one definition, newest
// first, with pagination metadata.
func GetDefinitionSnapshots(definitionID string, page, pageSize int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var snapshots []DefinitionSnapshot
	err := DB.Select(&snapshots, `
		SELECT * FROM definition_snapshots
		WHERE definition_id = $1
		ORDER BY snapshot_time DESC
		LIMIT $2 OFFSET $3
	`, definitionID, pageSize, offset)
	if err != nil {
		slog.Error("failed to fetch definition snapshots", "error", err)
		return nil, err
	}

	var total int
	err = DB.Get(&total,
		"SELECT COUNT(*) FROM definition_snapshots WHERE definition_id = $1",
		definitionID)
	if err != nil {
		slog.Error("failed to fetch total count", "error", err)
		return nil, err
	}

	return map[string]interface{}{
		"data": snapshots,
		"pagination": map[string]interface{}{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": (total + pageSize - 1) / pageSize,
		},
	}, nil
}

// GetDefinitionChanges returns the field-level change feed for a definition,
// newest first.
func GetDefinitionChanges(definitionID string, page, pageSize int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	var changes []DefinitionChange
	err := DB.Select(&changes, `
		SELECT * FROM definition_changes
		WHERE definition_id = $1
		ORDER BY change_time DESC
		LIMIT $2 OFFSET $3
	`, definitionID, pageSize, offset)
	if err != nil {
		slog.Error("failed to fetch definition changes", "error", err)
		return nil, err
	}

	var total int
	err = DB.Get(&total,
		"SELECT COUNT(*) FROM definition_changes WHERE definition_id = $1",
		definitionID)
	if err != nil {
		slog.Error("failed to fetch total count", "error", err)
		return nil, err
	}

	return map[string]interface{}{
		"data": changes,
		"pagination": map[string]interface{}{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": (total + pageSize - 1) / pageSize,
		},
	}, nil
}

type fieldChange struct {
	ChangeType string
	Path       string
	OldValue   *string
	NewValue   *string
}

func diffSnapshots(oldContent, newContent json.RawMessage) ([]fieldChange, error) {
	var oldDoc, newDoc map[string]interface{}
	if err := json.Unmarshal(oldContent, &oldDoc); err != nil {
		return nil, fmt.Errorf("error unmarshaling old snapshot: %v", err)
	}
	if err := json.Unmarshal(newContent, &newDoc); err != nil {
		return nil, fmt.Errorf("error unmarshaling new snapshot: %v", err)
	}

	var changes []fieldChange
	diffMaps("", oldDoc, newDoc, &changes)
	return changes, nil
}

// diffMaps walks both documents and records added, removed and modified
// leaves with dotted paths.
func diffMaps(path string, oldMap, newMap map[string]interface{}, changes *[]fieldChange) {
	for key, newValue := range newMap {
		newPath := key
		if path != "" {
			newPath = path + "." + key
		}

		oldValue, exists := oldMap[key]
		if !exists {
			*changes = append(*changes, fieldChange{
				ChangeType: ChangeAdded,
				Path:       newPath,
				NewValue:   stringify(newValue),
			})
			continue
		}

		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}

		oldNested, oldOK := oldValue.(map[string]interface{})
		newNested, newOK := newValue.(map[string]interface{})
		if oldOK && newOK {
			diffMaps(newPath, oldNested, newNested, changes)
			continue
		}

		*changes = append(*changes, fieldChange{
			ChangeType: ChangeModified,
			Path:       newPath,
			OldValue:   stringify(oldValue),
			NewValue:   stringify(newValue),
		})
	}

	for key, oldValue := range oldMap {
		if _, exists := newMap[key]; exists {
			continue
		}
		oldPath := key
		if path != "" {
			oldPath = path + "." + key
		}
		*changes = append(*changes, fieldChange{
			ChangeType: ChangeRemoved,
			Path:       oldPath,
			OldValue:   stringify(oldValue),
		})
	}
}

func stringify(v interface{}) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
