package model

import "time"

// TimeLog is an immutable record of time a user spent on a task.
// It is written once, when the user's timer stops.
type TimeLog struct {
	UserID    string    `json:"userId" bson:"userId" db:"user_id"`
	TaskID    string    `json:"taskId" bson:"taskId" db:"task_id"`
	ChannelID string    `json:"channelId" bson:"channelId" db:"channel_id"`
	StartTime time.Time `json:"startTime" bson:"startTime" db:"start_time"`
	EndTime   time.Time `json:"endTime" bson:"endTime" db:"end_time"`

	// Duration is EndTime-StartTime in milliseconds.
	Duration int64 `json:"duration" bson:"duration" db:"duration"`
}

// Elapsed returns the logged duration.
func (l TimeLog) Elapsed() time.Duration {
	return time.Duration(l.Duration) * time.Millisecond
}

// ActiveTimer is the in-memory state of a running timer.
type ActiveTimer struct {
	TaskID    string
	ChannelID string
	StartTime time.Time

	// Description is a snapshot of the task description taken at start.
	Description string
}
