package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
	"github.com/malbeclabs/analyst/api/metrics"
	"github.com/malbeclabs/analyst/pkg/superstore"
)

const (
	DefaultMaxUploadBytes = 64 << 20

	csvContentType = "text/csv"
)

// Analyzer answers a question with a report.
type Analyzer interface {
	Analyze(ctx context.Context, question string) (*pipeline.Analysis, error)
}

// Ingester loads a CSV export into the dataset engine.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) (superstore.IngestResult, error)
}

type Handlers struct {
	log            *slog.Logger
	analyzer       Analyzer
	ingester       Ingester
	maxUploadBytes int64
}

func New(log *slog.Logger, analyzer Analyzer, ingester Ingester, maxUploadBytes int64) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handlers{
		log:            log,
		analyzer:       analyzer,
		ingester:       ingester,
		maxUploadBytes: maxUploadBytes,
	}
}

type AnalyseRequest struct {
	Prompt string `json:"prompt"`
}

// Analyse runs one analysis and writes the report as plain text.
func (h *Handlers) Analyse(w http.ResponseWriter, r *http.Request) {
	var req AnalyseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	h.log.Info("handlers: analyse request", "prompt", req.Prompt)

	analysis, err := h.analyzer.Analyze(r.Context(), req.Prompt)
	if errors.Is(err, pipeline.ErrEmptyQuestion) {
		http.Error(w, "Prompt is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("handlers: analysis failed", "error", err)
		http.Error(w, "Analysis failed", http.StatusInternalServerError)
		return
	}
	metrics.AnalysesTotal.WithLabelValues(string(analysis.State)).Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Analysis-Id", analysis.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, analysis.Report); err != nil {
		h.log.Error("handlers: failed to write report", "error", err)
	}
}

// Upload accepts a multipart CSV file in the "file" field and stores its
// records.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		http.Error(w, "File is too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size == 0 {
		http.Error(w, "File is empty", http.StatusBadRequest)
		return
	}
	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != csvContentType {
		http.Error(w, "Unsupported file type. Please upload a CSV file.", http.StatusUnsupportedMediaType)
		return
	}

	h.log.Info("handlers: received file", "name", header.Filename, "size", header.Size)

	res, err := h.ingester.Ingest(r.Context(), file)
	if err != nil {
		h.log.Error("handlers: failed to process file", "name", header.Filename, "error", err)
		http.Error(w, "Error processing file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.UploadedRecordsTotal.Add(float64(res.Stored))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, "File uploaded successfully: "+header.Filename); err != nil {
		h.log.Error("handlers: failed to write response", "error", err)
	}
}
