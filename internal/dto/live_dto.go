package dto

import "time"

// Live feed message types.
const (
	LiveMessageConnected      = "connected"
	LiveMessageEntrySubmitted = "entry_submitted"
)

// LiveEntry describes a submission pushed to the admin live feed.
type LiveEntry struct {
	EntryID       uint      `json:"entry_id"`
	StudentID     uint      `json:"student_id"`
	Section       string    `json:"section"`
	TestType      string    `json:"test_type"`
	TestTypeLabel string    `json:"test_type_label"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// LiveMessage is one websocket frame of the live feed.
type LiveMessage struct {
	Type    string     `json:"type"`
	Section string     `json:"section,omitempty"`
	Entry   *LiveEntry `json:"entry,omitempty"`
	Replay  bool       `json:"replay,omitempty"`
}
