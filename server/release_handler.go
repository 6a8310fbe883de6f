package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"veestributes/cache"
	"veestributes/logger"
	"veestributes/model"
)

// ReleaseRequest represents the create/update release request body.
type ReleaseRequest struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	ReleaseDate string `json:"releaseDate"` // YYYY-MM-DD
}

func (req *ReleaseRequest) apply(release *model.Release) error {
	release.Title = req.Title
	release.Artist = req.Artist
	release.Album = req.Album
	release.Genre = req.Genre
	release.Description = req.Description

	if req.ReleaseDate != "" {
		date, err := time.Parse("2006-01-02", req.ReleaseDate)
		if err != nil {
			return err
		}
		release.ReleaseDate = &date
	} else {
		release.ReleaseDate = nil
	}
	return nil
}

// releaseFromRequest loads the release in the URL and verifies the
// requester owns it. Writes the error response itself on failure.
func (h *APIHandler) releaseFromRequest(w http.ResponseWriter, r *http.Request) *model.Release {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid release ID")
		return nil
	}

	release, err := h.releaseRepo.GetReleaseByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to load release", logger.Int64("releaseId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	if release == nil || release.UserID != userID {
		writeError(w, http.StatusNotFound, "Release not found")
		return nil
	}
	return release
}

// CreateReleaseHandler creates a new draft release.
func (h *APIHandler) CreateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	release := &model.Release{UserID: userID, Status: model.ReleaseStatusDraft}
	if err := req.apply(release); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid release date, expected YYYY-MM-DD")
		return
	}

	id, err := h.releaseRepo.CreateRelease(r.Context(), release)
	if err != nil {
		logger.Error("Failed to create release", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create release")
		return
	}

	created, err := h.releaseRepo.GetReleaseByID(r.Context(), id)
	if err != nil || created == nil {
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListReleasesHandler lists the requester's releases.
func (h *APIHandler) ListReleasesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	releases, err := h.releaseRepo.GetReleasesByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to list releases", logger.Int64("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list releases")
		return
	}
	if releases == nil {
		releases = []*model.Release{}
	}
	writeJSON(w, http.StatusOK, releases)
}

// GetReleaseHandler returns one release with its files.
func (h *APIHandler) GetReleaseHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// UpdateReleaseHandler updates a draft release's metadata.
func (h *APIHandler) UpdateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}

	if release.Status != model.ReleaseStatusDraft {
		writeError(w, http.StatusConflict, "Only draft releases can be edited")
		return
	}

	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if err := req.apply(release); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid release date, expected YYYY-MM-DD")
		return
	}

	if err := h.releaseRepo.UpdateRelease(r.Context(), release); err != nil {
		logger.Error("Failed to update release", logger.Int64("releaseId", release.ID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update release")
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// DeleteReleaseHandler deletes a release and its file rows.
func (h *APIHandler) DeleteReleaseHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}

	if err := h.releaseRepo.DeleteRelease(r.Context(), release.ID); err != nil {
		logger.Error("Failed to delete release", logger.Int64("releaseId", release.ID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete release")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DistributeReleaseHandler enqueues a distribution run for a release.
func (h *APIHandler) DistributeReleaseHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}

	if release.Status != model.ReleaseStatusDraft {
		writeError(w, http.StatusConflict, "Release is not in draft status")
		return
	}

	jobID, err := h.processor.EnqueueDistribution(r.Context(), release.ID)
	if err != nil {
		logger.Error("Failed to enqueue distribution", logger.Int64("releaseId", release.ID), logger.ErrorField(err))
		writeError(w, http.StatusServiceUnavailable, "Failed to schedule distribution")
		return
	}

	logger.Info("Distribution scheduled",
		logger.Int64("releaseId", release.ID),
		logger.String("jobId", jobID))
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

// DistributionStatusHandler lists the per-platform attempts of a release.
func (h *APIHandler) DistributionStatusHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}

	attempts, err := h.attemptRepo.GetAttemptsByReleaseID(r.Context(), release.ID)
	if err != nil {
		logger.Error("Failed to load attempts", logger.Int64("releaseId", release.ID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load distribution status")
		return
	}
	if attempts == nil {
		attempts = []*model.DistributionAttempt{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"releaseId":     release.ID,
		"status":        release.Status,
		"distributedAt": release.DistributedAt,
		"attempts":      attempts,
	})
}

// ListPlatformsHandler lists the active platform catalog.
func (h *APIHandler) ListPlatformsHandler(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.platformRepo.GetActivePlatforms(r.Context())
	if err != nil {
		logger.Error("Failed to list platforms", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list platforms")
		return
	}
	if platforms == nil {
		platforms = []*model.Platform{}
	}
	writeJSON(w, http.StatusOK, platforms)
}

// JobStatusHandler reports the state of a background job.
func (h *APIHandler) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	status, err := cache.GetJobStatus(r.Context(), jobID)
	if err != nil {
		logger.Error("Failed to load job status", logger.String("jobId", jobID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load job status")
		return
	}
	if status == nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
