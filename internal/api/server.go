package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"

	"papercast/internal/config"
	"papercast/internal/models"
	"papercast/internal/storage"
	"papercast/internal/workflows"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Server struct {
	cfg       config.Config
	db        *storage.DB
	paperRepo *storage.PaperRepo
	temporal  tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL, cfg.PostgresMaxConns)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:       cfg,
		db:        db,
		paperRepo: storage.NewPaperRepo(db),
		temporal:  tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/v1/papers", s.handlePapers)
	mux.HandleFunc("/internal/api/v1/workers/start_script_writing/", s.workerHandler("script-writing", workflows.ScriptWritingWorkflow))
	mux.HandleFunc("/internal/api/v1/workers/start_tts/", s.workerHandler("tts", workflows.SpeechSynthesisWorkflow))
	mux.HandleFunc("/internal/api/v1/workers/start_creating_audio/", s.workerHandler("audio", workflows.AudioAssemblyWorkflow))
	return withCORS(mux)
}

func (s *Server) Close() {
	s.temporal.Close()
	s.db.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	date := r.URL.Query().Get("date")
	var (
		papers []models.Paper
		err    error
	)
	if date == "" {
		papers, err = s.paperRepo.SelectAll(r.Context())
	} else {
		if !datePattern.MatchString(date) {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("date must be YYYY-MM-DD"))
			return
		}
		papers, err = s.paperRepo.SelectByDateAndStatus(r.Context(), date, models.StatusPodcastCreated)
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"papers": papers})
}

// workerHandler starts the given batch workflow for the date in the path and
// waits for it, so the caller gets the batch counts in the response.
func (s *Server) workerHandler(stage string, wf any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		date := parts[len(parts)-1]
		if !datePattern.MatchString(date) {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("date must be YYYY-MM-DD"))
			return
		}

		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                    fmt.Sprintf("%s-%s-%s", stage, date, uuid.NewString()[:8]),
			TaskQueue:             s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		}, wf, workflows.BatchInput{TargetDate: date, TimeoutMins: s.cfg.BatchTimeoutMins})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}

		var result workflows.BatchResult
		if err := we.Get(r.Context(), &result); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("%s batch finished", stage),
			"data": map[string]any{
				"target_date":           result.TargetDate,
				"listed_paper_count":    result.Listed,
				"processed_paper_count": result.Processed,
			},
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
