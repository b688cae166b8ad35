package activities

import "papercast/internal/models"

type ListDailyPapersInput struct {
	TargetDate string `json:"target_date"`
}

type ListDailyPapersOutput struct {
	PaperIDs []string `json:"paper_ids"`
}

type CreatePaperInput struct {
	PaperID    string `json:"paper_id"`
	TargetDate string `json:"target_date"`
}

type CreatePaperOutput struct {
	Paper models.Paper `json:"paper"`
}

type SelectPapersInput struct {
	TargetDate string        `json:"target_date"`
	Status     models.Status `json:"status"`
}

type SelectPapersOutput struct {
	Papers []models.Paper `json:"papers"`
}

type WriteScriptInput struct {
	Paper models.Paper `json:"paper"`
}

type WriteScriptOutput struct {
	Relevant   bool `json:"relevant"`
	Accepted   bool `json:"accepted"`
	Iterations int  `json:"iterations"`
}

type SynthesizeSpeechInput struct {
	Paper models.Paper `json:"paper"`
}

type SynthesizeSpeechOutput struct {
	ChunkCount int `json:"chunk_count"`
}

type AssembleAudioInput struct {
	Paper models.Paper `json:"paper"`
}

type AssembleAudioOutput struct {
	OutputPath string `json:"output_path"`
}
