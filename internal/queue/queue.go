package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueContextSync  = "context_sync"
	QueueRenewalSweep = "renewal_sweep"
)

// ContextSyncPayload asks the worker to refresh course contexts from the SIS
// for one student, or for everyone when StudentID is empty.
type ContextSyncPayload struct {
	StudentID   string `json:"student_id,omitempty"`
	RequestedBy string `json:"requested_by"`
}

// RenewalSweepPayload asks the worker to precompute next renewal dates for
// every repeating definition.
type RenewalSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

var (
	client    *asynq.Client
	inspector *asynq.Inspector
)

// InitQueue initializes the Redis connection for Asynq
func InitQueue() error {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: redisAddr,
	}

	client = asynq.NewClient(redisOpt)
	inspector = asynq.NewInspector(redisOpt)

	// Test connection
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	// Recreate client after test
	client = asynq.NewClient(redisOpt)

	slog.Info("Successfully initialized task queue")
	return nil
}

// EnqueueContextSync creates a task to refresh course contexts from the SIS.
func EnqueueContextSync(payload ContextSyncPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %v", err)
	}

	task := asynq.NewTask(QueueContextSync, payloadBytes)

	info, err := client.Enqueue(task,
		asynq.Queue(QueueContextSync),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %v", err)
	}

	return info.ID, nil
}

// ScheduleRenewalSweep enqueues the nightly sweep that precomputes
// next-renewal dates for repeating notifications.
func ScheduleRenewalSweep(in time.Duration) (string, error) {
	payload := RenewalSweepPayload{ScheduledFor: time.Now().Add(in)}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %v", err)
	}

	task := asynq.NewTask(QueueRenewalSweep, payloadBytes)

	info, err := client.Enqueue(task,
		asynq.Queue(QueueRenewalSweep),
		asynq.ProcessIn(in),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue renewal sweep: %v", err)
	}

	return info.ID, nil
}

// GetTaskStatus returns the current status of a context sync task
func GetTaskStatus(taskID string) (*asynq.TaskInfo, error) {
	info, err := inspector.GetTaskInfo(QueueContextSync, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task info: %v", err)
	}
	return info, nil
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}
