package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/mager/auricle/audio"
	"github.com/mager/auricle/auricle"
	"github.com/mager/auricle/config"
	"github.com/mager/auricle/style"
	"go.uber.org/zap"
)

// multipartMemory is how much of an upload is buffered in memory before
// mime/multipart spills it to disk.
const multipartMemory = 8 << 20

// Analyzer estimates tempo and spectral features from mono PCM.
type Analyzer interface {
	Analyze(pcm audio.PCM) auricle.Features
}

// Recommender finds record labels for a tempo.
type Recommender interface {
	Recommend(ctx context.Context, tempo float64) []auricle.Label
}

// AnalyzeHandler accepts an audio upload and returns its tempo, style and
// recommended labels.
type AnalyzeHandler struct {
	log         *zap.SugaredLogger
	analyzer    Analyzer
	recommender Recommender

	sampleRate int
	maxUpload  int64
	tempDir    string
}

func (*AnalyzeHandler) Pattern() string {
	return "/analyze"
}

func (*AnalyzeHandler) Methods() []string {
	return []string{http.MethodPost}
}

// NewAnalyzeHandler builds a new AnalyzeHandler.
func NewAnalyzeHandler(log *zap.SugaredLogger, cfg config.Config, analyzer Analyzer, recommender Recommender) *AnalyzeHandler {
	return &AnalyzeHandler{
		log:         log,
		analyzer:    analyzer,
		recommender: recommender,
		sampleRate:  cfg.SampleRate,
		maxUpload:   cfg.MaxUploadMB << 20,
		tempDir:     cfg.TempDir,
	}
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Analyze an uploaded track
// @Summary Analyze an uploaded track
// @Description Estimate tempo, classify style and recommend record labels for a WAV or MP3 upload
// @Tags Analyze
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file"
// @Success 200 {object} auricle.AnalysisResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analyze [post]
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := h.log

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		l.Infow("bad upload", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh := firstFile(r.MultipartForm)
	if fh == nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	if _, err := audio.FormatOf(fh.Filename); err != nil {
		l.Infow("rejected upload", "filename", fh.Filename)
		writeError(w, http.StatusBadRequest, "Only WAV or MP3 files are supported")
		return
	}

	result, err := h.analyze(r.Context(), fh)
	if err != nil {
		l.Errorw("analysis failed", "filename", fh.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	l.Infow("analysis complete",
		"filename", fh.Filename,
		"tempo", result.Tempo,
		"style", result.Style,
		"labels", len(result.RecommendedLabels),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// analyze copies the upload to a temp file that is removed on every exit
// path, including a panic further down the pipeline.
func (h *AnalyzeHandler) analyze(ctx context.Context, fh *multipart.FileHeader) (result auricle.AnalysisResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()

	path, err := h.saveTemp(fh)
	if err != nil {
		return result, err
	}
	defer os.Remove(path)

	pcm, err := audio.Load(path, h.sampleRate)
	if err != nil {
		return result, err
	}

	features := h.analyzer.Analyze(pcm)
	tempo := features.Tempo
	if !(tempo > 0) {
		tempo = auricle.DefaultTempo
	}

	return auricle.AnalysisResult{
		Tempo:             tempo,
		Style:             style.Classify(tempo),
		RecommendedLabels: h.recommender.Recommend(ctx, tempo),
		Duration:          features.Duration,
		SpectralCentroid:  features.SpectralCentroid,
		RMSEnergy:         features.RMSEnergy,
	}, nil
}

func (h *AnalyzeHandler) saveTemp(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.tempDir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("save upload: %w", err)
	}
	return dst.Name(), nil
}

// firstFile returns the upload in the "file" field, or else the first upload
// by field name so the choice is stable across requests.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File["file"]; len(files) > 0 {
		return files[0]
	}
	for _, field := range slices.Sorted(maps.Keys(form.File)) {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Detail: detail})
}
