package tasks

import "github.com/hibiken/asynq"

const (
	TypeCheckPublications = "publications:check"
)

// NewCheckPublicationsTask creates the task that runs one watcher cycle
// over all pending episodes.
func NewCheckPublicationsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeCheckPublications, nil), nil
}
