package model

import "time"

// StandupResponse is a single user's reply to a standup prompt.
type StandupResponse struct {
	UserID   string `json:"userId" bson:"userId"`
	Username string `json:"username" bson:"username"`
	Content  string `json:"content" bson:"content"`

	// Timestamp is the reply's creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp" bson:"timestamp"`
}

// Standup holds the responses gathered in one channel during one
// collection window.
type Standup struct {
	ChannelID string            `json:"channelId" bson:"channelId"`
	Date      time.Time         `json:"date" bson:"date"`
	Responses []StandupResponse `json:"responses" bson:"responses"`
}

// ChannelSettings toggles the scheduled features for one channel.
type ChannelSettings struct {
	StandupEnabled       bool `json:"standupEnabled" bson:"standupEnabled"`
	WeeklySummaryEnabled bool `json:"weeklySummaryEnabled" bson:"weeklySummaryEnabled"`
}

// Settings maps channel IDs to their settings. A channel without an
// entry has every feature disabled.
type Settings struct {
	Channels map[string]ChannelSettings `json:"channels"`
}

// Channel returns the settings for channelID, or the zero value.
func (s Settings) Channel(channelID string) ChannelSettings {
	return s.Channels[channelID]
}
