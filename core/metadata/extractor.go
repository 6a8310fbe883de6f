package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"veestributes/logger"
)

// FormatHandler parses one container format into the normalized record.
type FormatHandler interface {
	// Extract reads audio properties, tags and embedded artwork from the
	// file. Absence of tags or artwork is not an error.
	Extract(path string) (*AudioMetadata, error)
}

// Extractor dispatches on file extension to a registered format handler.
// Formats are added by registering a handler, not by branching.
type Extractor struct {
	handlers map[string]FormatHandler
}

// NewExtractor returns an extractor with the built-in format handlers
// registered.
func NewExtractor() *Extractor {
	e := &Extractor{handlers: make(map[string]FormatHandler)}
	e.Register(".mp3", &mp3Handler{})
	e.Register(".flac", &flacHandler{})
	e.Register(".ogg", &oggHandler{})
	return e
}

// Register maps a file extension (with or without leading dot) to a handler.
func (e *Extractor) Register(ext string, handler FormatHandler) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	e.handlers[ext] = handler
}

// SupportedExtensions returns the sorted set of registered extensions.
func (e *Extractor) SupportedExtensions() []string {
	exts := make([]string, 0, len(e.handlers))
	for ext := range e.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether the extension has a registered handler.
func (e *Extractor) Supports(ext string) bool {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := e.handlers[ext]
	return ok
}

// Extract parses the audio file at path into a normalized metadata record.
// It fails with ErrUnsupportedFormat for unregistered extensions,
// ErrFileNotFound for missing paths and ErrCorruptAudio when the
// container-level parse fails.
func (e *Extractor) Extract(path string) (*AudioMetadata, error) {
	ext := strings.ToLower(filepath.Ext(path))
	handler, ok := e.handlers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat audio file %s: %w", path, err)
	}

	meta, err := runHandler(handler, path)
	if err != nil {
		logger.Error("metadata extraction failed",
			logger.String("path", path),
			logger.String("ext", ext),
			logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", ErrCorruptAudio, err)
	}

	return meta, nil
}

// runHandler invokes the format handler, converting a parser panic into
// an error. Container parsers index truncated input unchecked; a
// malformed upload must surface as corrupt audio, not kill the caller.
func runHandler(handler FormatHandler, path string) (meta *AudioMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = fmt.Errorf("parser panicked: %v", r)
		}
	}()
	return handler.Extract(path)
}
