package model

import "time"

// DueDateLayout is the input format accepted for task due dates.
const DueDateLayout = "2006-01-02"

// Task is a unit of work scoped to a chat channel.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" bson:"id" db:"id"`

	// ChannelID is the channel the task was created in.
	ChannelID string `json:"channelId" bson:"channelId" db:"channel_id"`

	// UserID is the user who created (and owns) the task.
	UserID string `json:"userId" bson:"userId" db:"user_id"`

	// Description is the human-readable summary of the work.
	Description string `json:"description" bson:"description" db:"description"`

	// DueDate is midnight UTC of the day the task is due.
	DueDate time.Time `json:"dueDate" bson:"dueDate" db:"due_date"`

	// CreatedAt is when the task was added.
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`

	// Completed is set once the task is marked done.
	Completed bool `json:"completed" bson:"completed" db:"completed"`

	// CompletedAt is nil while Completed is false.
	CompletedAt *time.Time `json:"completedAt" bson:"completedAt" db:"completed_at"`
}

// CompletedBetween reports whether the task was completed within [from, to].
func (t Task) CompletedBetween(from, to time.Time) bool {
	if !t.Completed || t.CompletedAt == nil {
		return false
	}
	return !t.CompletedAt.Before(from) && !t.CompletedAt.After(to)
}
