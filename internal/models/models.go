package models

import "time"

// Status is the lifecycle of a paper inside one production run.
type Status string

const (
	StatusInitialized    Status = "initialized"
	StatusScriptCreated  Status = "script_created"
	StatusTTSCompleted   Status = "tts_completed"
	StatusPodcastCreated Status = "podcast_created"
)

// Section is one top-level outline entry of a paper. StartPage is inclusive;
// EndPage is the page the next section starts on. NextTitle bounds text
// extraction: a section's text runs from its own heading up to the heading of
// the next section.
type Section struct {
	Title     string `json:"title"`
	Level     int    `json:"level"`
	LevelName string `json:"section_level_name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	NextTitle string `json:"next_section_title"`
}

// Key is the stable identifier joining a section to its summary.
func (s Section) Key() string {
	return s.LevelName + " " + s.Title
}

type Paper struct {
	ID              int64     `json:"id"`
	PaperID         string    `json:"paper_id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	Authors         []string  `json:"authors"`
	TargetDate      string    `json:"target_date"`
	Sections        []Section `json:"sections"`
	Status          Status    `json:"status"`
	Script          string    `json:"script,omitempty"`
	ScriptFileCount int       `json:"script_file_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
