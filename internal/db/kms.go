package db

import (
	"fmt"
	"time"
)

// InitKMSRotation seeds the rotation schedule for the key that encrypts
// survey answers, if no record exists yet.
func InitKMSRotation(keyID string) error {
	var exists bool
	err := DB.Get(&exists, `
		SELECT EXISTS (
			SELECT 1 FROM kms_key_rotation
			WHERE key_id = $1
		)
	`, keyID)
	if err != nil {
		return fmt.Errorf("failed to check existing rotation task: %v", err)
	}

	if !exists {
		nextRotation := time.Now().Add(3 * 30 * 24 * time.Hour) // 3 months
		_, err = DB.Exec(`
			INSERT INTO kms_key_rotation (key_id, next_rotation_at)
			VALUES ($1, $2)
		`, keyID, nextRotation)
		if err != nil {
			return fmt.Errorf("failed to create rotation task: %v", err)
		}
	}

	return nil
}

// MarkKMSRotated records a completed rotation and schedules the next one.
func MarkKMSRotated(keyID string) error {
	nextRotation := time.Now().Add(3 * 30 * 24 * time.Hour)
	_, err := DB.Exec(`
		UPDATE kms_key_rotation
		SET last_rotated_at = CURRENT_TIMESTAMP,
		    next_rotation_at = $2
		WHERE key_id = $1
	`, keyID, nextRotation)
	if err != nil {
		return fmt.Errorf("failed to update rotation record: %v", err)
	}
	return nil
}
