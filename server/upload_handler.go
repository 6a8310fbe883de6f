package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"veestributes/logger"
	"veestributes/model"
)

var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// UploadFileHandler accepts a multipart upload for a release. Expected
// form fields:
//   - file: the audio file (MP3, FLAC, OGG) or artwork image (JPEG, PNG)
//
// The file is staged on disk, registered in pending state, and handed
// to the background queue; the response carries the job id to poll.
func (h *APIHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}

	if release.Status != model.ReleaseStatusDraft {
		writeError(w, http.StatusConflict, "Files can only be added to draft releases")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large or malformed")
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Form field 'file' is required")
		return
	}
	defer upload.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	fileType, mimeType, err := classifyUpload(ext)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	dir := h.cfg.AudioUploadDir
	if fileType == model.FileTypeArtwork {
		dir = h.cfg.ArtworkDir
	}

	filename := uuid.NewString() + ext
	destPath := filepath.Join(dir, filename)
	size, err := saveUpload(upload, destPath)
	if err != nil {
		logger.Error("Failed to store upload", logger.String("path", destPath), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	file := &model.File{
		ReleaseID:        release.ID,
		Filename:         filename,
		OriginalFilename: header.Filename,
		FileType:         fileType,
		FileSize:         size,
		MimeType:         mimeType,
		FilePath:         destPath,
		URLPath:          fmt.Sprintf("/uploads/%s/%s", fileType, filename),
		ProcessingStatus: model.ProcessingStatusPending,
	}

	fileID, err := h.fileRepo.CreateFile(r.Context(), file)
	if err != nil {
		os.Remove(destPath)
		logger.Error("Failed to register upload", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to register upload")
		return
	}
	file.ID = fileID

	var jobID string
	if fileType == model.FileTypeAudio {
		jobID, err = h.processor.EnqueueAudioProcessing(r.Context(), fileID)
	} else {
		jobID, err = h.processor.EnqueueArtworkProcessing(r.Context(), fileID)
	}
	if err != nil {
		logger.Error("Failed to enqueue processing", logger.Int64("fileId", fileID), logger.ErrorField(err))
		writeError(w, http.StatusServiceUnavailable, "Failed to schedule processing")
		return
	}

	logger.Info("File uploaded",
		logger.Int64("releaseId", release.ID),
		logger.Int64("fileId", fileID),
		logger.String("type", string(fileType)),
		logger.String("jobId", jobID))
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"file":  file,
		"jobId": jobID,
	})
}

// DeleteFileHandler removes a file from a draft release.
func (h *APIHandler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	release := h.releaseFromRequest(w, r)
	if release == nil {
		return
	}
	if release.Status != model.ReleaseStatusDraft {
		writeError(w, http.StatusConflict, "Files can only be removed from draft releases")
		return
	}

	fileID, err := strconv.ParseInt(mux.Vars(r)["fileId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file ID")
		return
	}

	var target *model.File
	for _, f := range release.Files {
		if f.ID == fileID {
			target = f
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	if err := h.fileRepo.DeleteFile(r.Context(), target.ID); err != nil {
		logger.Error("Failed to delete file", logger.Int64("fileId", target.ID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	if err := os.Remove(target.FilePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove file from disk", logger.String("path", target.FilePath), logger.ErrorField(err))
	}
	if h.store != nil {
		objectName := fmt.Sprintf("%s/%s", target.FileType, target.Filename)
		if err := h.store.RemoveObject(r.Context(), objectName); err != nil {
			logger.Warn("Failed to remove file from object storage", logger.String("object", objectName), logger.ErrorField(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func classifyUpload(ext string) (model.FileType, string, error) {
	if mime, ok := audioExtensions[ext]; ok {
		return model.FileTypeAudio, mime, nil
	}
	if mime, ok := imageExtensions[ext]; ok {
		return model.FileTypeArtwork, mime, nil
	}
	return "", "", fmt.Errorf("unsupported file extension %q", ext)
}

func saveUpload(src io.Reader, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Stage through a .tmp name so the janitor can sweep partial writes.
	tmpPath := destPath + ".tmp"
	dest, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	size, err := io.Copy(dest, src)
	if cerr := dest.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to finalize upload: %w", err)
	}
	return size, nil
}
