package api

import (
	"net/http"
	"strings"

	"github.com/okian/platecheck/internal/domain/types"
)

type ackResponse struct {
	Status    string            `json:"status"`
	Duplicate bool              `json:"duplicate"`
	Batch     types.BatchStatus `json:"batch"`
}

// HandleSubmitBatch handles POST /batches: multipart "images" files and an
// optional "batch_id" used for idempotency.
func (s *Server) HandleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_batch"

	tier, err := s.tier(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	images, err := s.readImages(w, r, "images", s.maxBatchImages)
	if err != nil {
		writeUploadError(w, op, err)
		return
	}
	id := strings.TrimSpace(r.FormValue("batch_id"))

	st, duplicate, err := s.deps.SubmitBatch(r.Context(), id, tier, images)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Batch: st})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Batch: st})
}

// HandleGetBatch handles GET /batches/{id}.
func (s *Server) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_batch"

	st, err := s.deps.Batch(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
