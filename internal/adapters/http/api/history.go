package api

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/platecheck/internal/adapters/export"
	"github.com/okian/platecheck/internal/domain/model"
)

const defaultHistoryLimit = 100

type historyResponse struct {
	Total   int                       `json:"total"`
	Offset  int                       `json:"offset"`
	Limit   int                       `json:"limit"`
	Records []*model.ComparisonRecord `json:"records"`
}

// HandleHistory handles GET /history?offset=&limit=.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	records, err := s.deps.HistoryPage(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Total:   s.deps.HistoryCount(r.Context()),
		Offset:  offset,
		Limit:   limit,
		Records: records,
	})
}

// HandleGetRecord handles GET /records/{id}.
func (s *Server) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_record"

	rec, err := s.deps.Record(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleExport handles GET /export.csv. With ?upload=true the file is also
// stored through the uploader and its key returned in X-Export-Object.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"

	upload := false
	if v := r.URL.Query().Get("upload"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		upload = b
	}
	if upload && s.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "upload_disabled", NewKind(op, ErrUploadDisabled))
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Export(r.Context(), &buf); err != nil {
		writeServiceError(w, op, err)
		return
	}
	name := export.FileName(time.Now())

	if upload {
		key, err := s.uploader.Upload(r.Context(), name, buf.Bytes())
		if err != nil {
			writeError(w, http.StatusBadGateway, "upload_failed", WrapKind(op, ErrUnavailable, err))
			return
		}
		w.Header().Set(exportObjectHeader, key)
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
