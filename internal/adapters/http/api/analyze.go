package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/okian/platecheck/internal/domain/model"
)

// HandleAnalyze handles POST /analyze: one multipart "image" file,
// processed synchronously.
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"

	tier, err := s.tier(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	images, err := s.readImages(w, r, "image", 1)
	if err != nil {
		writeUploadError(w, op, err)
		return
	}

	rec, err := s.deps.ProcessImage(r.Context(), images[0], tier)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// readImages parses a multipart body and returns between one and limit files
// from field in upload order.
func (s *Server) readImages(w http.ResponseWriter, r *http.Request, field string, limit int) ([]model.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryCeiling); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[field]
	switch {
	case len(files) == 0:
		return nil, fmt.Errorf("%w: missing %q file", ErrBadRequest, field)
	case len(files) > limit:
		return nil, fmt.Errorf("%w: at most %d %q files allowed, got %d", ErrBadRequest, limit, field, len(files))
	}

	images := make([]model.Image, 0, len(files))
	for _, fh := range files {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) (model.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: open %s: %w", ErrBadRequest, fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Image{}, fmt.Errorf("%w: read %s: %w", ErrBadRequest, fh.Filename, err)
	}
	if len(data) == 0 {
		return model.Image{}, fmt.Errorf("%w: %s is empty", ErrBadRequest, fh.Filename)
	}

	mt := fh.Header.Get("Content-Type")
	if mt == "" || mt == "application/octet-stream" {
		mt = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mt, "image/") {
		return model.Image{}, fmt.Errorf("%w: %s is not an image (%s)", ErrBadRequest, fh.Filename, mt)
	}
	return model.NewImage(filepath.Base(fh.Filename), mt, data), nil
}

func writeUploadError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrPayloadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
}
