package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"veestributes/cache"
	"veestributes/logger"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// JobProgressHandler streams a job's status records over a websocket
// until the job reaches a terminal state. Clients that prefer polling
// use the REST endpoint instead.
func (h *APIHandler) JobProgressHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	jobID := mux.Vars(r)["id"]
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastState cache.JobState
	deadline := time.Now().Add(10 * time.Minute)

	for time.Now().Before(deadline) {
		status, err := cache.GetJobStatus(r.Context(), jobID)
		if err != nil {
			logger.Error("failed to read job status", logger.String("jobId", jobID), logger.ErrorField(err))
			return
		}
		if status == nil {
			conn.WriteJSON(map[string]string{"error": "job not found"})
			return
		}

		if status.State != lastState {
			lastState = status.State
			if err := conn.WriteJSON(status); err != nil {
				return
			}
		}
		if status.State == cache.JobStateSucceeded || status.State == cache.JobStateFailed {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
