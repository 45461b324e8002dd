package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"illustration-grid/backend/extract"
	"illustration-grid/backend/layout"
	"illustration-grid/backend/pipeline"
)

const maxUploadBytes = 50 << 20

type server struct {
	pipeline *pipeline.Pipeline
	maxDocs  int
}

// handleProcess accepts the multipart batch, runs the pipeline and returns
// the composed PDF as a download. Filename and count checks happen before
// any upload is read fully into the batch.
func (s *server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}
	if len(files) > s.maxDocs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum %d files allowed", s.maxDocs))
		return
	}
	for _, fh := range files {
		if fh.Filename == "" || !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid file: %s", fh.Filename))
			return
		}
	}

	docs := make([]pipeline.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		docs = append(docs, pipeline.Document{Name: fh.Filename, Data: data})
	}

	out, err := s.pipeline.Process(r.Context(), docs)
	if err != nil {
		status := statusFor(err)
		log.Printf("process failed (%d): %v", status, err)
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="output.pdf"`)
	if _, err := w.Write(out); err != nil {
		log.Printf("write response: %v", err)
	}
}

// statusFor maps the pipeline's error taxonomy onto HTTP classes: anything
// caused by the uploaded documents is the client's problem, everything else
// is ours.
func statusFor(err error) int {
	var (
		validation *pipeline.ValidationError
		decode     *extract.DecodeError
		empty      *extract.EmptyDocumentError
		invalid    *layout.InvalidArtifactError
	)
	switch {
	case errors.As(err, &validation),
		errors.As(err, &decode),
		errors.As(err, &empty),
		errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("write error response: %v", err)
	}
}
