package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dibesmab-cyber/OCR/internal/app"
	"github.com/dibesmab-cyber/OCR/internal/httputil"
	"github.com/dibesmab-cyber/OCR/internal/llm"
	"github.com/dibesmab-cyber/OCR/internal/transcribe"
)

type askRequest struct {
	// Pointer so a missing key is rejected while an empty question is
	// still forwarded to the model as-is.
	Question *string `json:"question" validate:"required"`
}

type kumruResponse struct {
	KumruResponse string `json:"kumru_response"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/kumru/health", healthHandler())
		api.Post("/llm/kumru/ask", askHandler(deps))
		api.Post("/llm/kumru/send_documents", sendDocumentsHandler(deps))
		api.Post("/llm/kumru/send_pdf", sendPDFHandler(deps))
	})

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		deps.Log.Info("kumru relay listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			deps.Log.Info("shutting down", "signal", s.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "Kumru router is healthy",
		})
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		answer, err := deps.LLM.Generate(r.Context(), *req.Question)
		if err != nil {
			if errors.Is(err, llm.ErrUnavailable) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("inference service is unavailable: %v", err), err, http.StatusServiceUnavailable)
				return
			}
			httputil.Fail(deps.Log, w, fmt.Sprintf("an unexpected error occurred: %v", err), err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, kumruResponse{KumruResponse: answer})
	}
}

// sendDocumentsHandler transcribes a PDF in strict passthrough mode: empty
// pages are skipped and any page failure aborts the whole request.
func sendDocumentsHandler(deps app.Deps) http.HandlerFunc {
	tr := transcribe.New(deps.LLM, deps.Extractor, deps.Log)

	return func(w http.ResponseWriter, r *http.Request) {
		content, ok := readPDFUpload(deps, w, r)
		if !ok {
			return
		}
		log := deps.Log.With("job_id", uuid.New(), "mode", "strict")
		log.Info("transcribing document", "bytes", len(content))

		out, err := tr.Strict(r.Context(), content)
		if err != nil {
			httputil.Fail(log, w, fmt.Sprintf("PDF processing error: %v", err), err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, kumruResponse{KumruResponse: out})
	}
}

// sendPDFHandler transcribes a PDF in OCR-fallback mode: every page gets an
// inference call and per-page failures are recorded inline instead of
// aborting.
func sendPDFHandler(deps app.Deps) http.HandlerFunc {
	tr := transcribe.New(deps.LLM, deps.Extractor, deps.Log)

	return func(w http.ResponseWriter, r *http.Request) {
		content, ok := readPDFUpload(deps, w, r)
		if !ok {
			return
		}
		log := deps.Log.With("job_id", uuid.New(), "mode", "ocr-fallback")
		log.Info("transcribing document", "bytes", len(content))

		out, err := tr.OCRFallback(r.Context(), content)
		if err != nil {
			httputil.Fail(log, w, fmt.Sprintf("PDF processing error: %v", err), err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, kumruResponse{KumruResponse: out})
	}
}

// readPDFUpload reads and validates the multipart "file" part. It writes the
// error response itself and returns ok=false when validation fails.
func readPDFUpload(deps app.Deps, w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	maxFileSize := deps.Config.MaxUploadSize

	// Validate file size before parsing
	if r.ContentLength > maxFileSize {
		httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	if header.Size > maxFileSize {
		httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
		return nil, false
	}

	// Strip media type parameters (e.g. "; charset=binary") before comparing
	contentType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}

	// If Content-Type is missing, detect from filename
	if contentType == "" && strings.ToLower(filepath.Ext(header.Filename)) == ".pdf" {
		contentType = "application/pdf"
	}
	if contentType != "application/pdf" {
		httputil.Fail(deps.Log, w, "unsupported file type (only PDF allowed)", nil, http.StatusBadRequest)
		return nil, false
	}

	content, err := io.ReadAll(file)
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
		return nil, false
	}
	return content, true
}
