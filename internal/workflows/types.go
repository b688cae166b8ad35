package workflows

// BatchInput drives one production stage over every paper of a target date.
// TimeoutMins bounds each paper's long-running activity; zero means the
// 60-minute default.
type BatchInput struct {
	TargetDate  string `json:"target_date"`
	TimeoutMins int    `json:"timeout_mins,omitempty"`
}

// BatchResult reports how far a stage got. Listed counts the papers the
// stage considered; Processed counts the ones it completed.
type BatchResult struct {
	TargetDate string `json:"target_date"`
	Listed     int    `json:"listed_paper_count"`
	Processed  int    `json:"processed_paper_count"`
}
