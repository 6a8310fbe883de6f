package task

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"veestributes/cache"
	"veestributes/core/metadata"
	"veestributes/model"
)

type fakeFileStore struct {
	mu      sync.Mutex
	files   map[int64]*model.File
	updates []model.ProcessingStatus
	saved   bool
}

func newFakeFileStore(files ...*model.File) *fakeFileStore {
	s := &fakeFileStore{files: make(map[int64]*model.File)}
	for _, f := range files {
		s.files[f.ID] = f
	}
	return s
}

func (s *fakeFileStore) GetFileByID(ctx context.Context, id int64) (*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[id], nil
}

func (s *fakeFileStore) GetFileByPath(ctx context.Context, path string) (*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.FilePath == path {
			return f, nil
		}
	}
	return nil, nil
}

func (s *fakeFileStore) UpdateFileProcessing(ctx context.Context, id int64, status model.ProcessingStatus, processingError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, status)
	if f, ok := s.files[id]; ok {
		f.ProcessingStatus = status
		f.ProcessingError = processingError
	}
	return nil
}

func (s *fakeFileStore) SaveFileMetadata(ctx context.Context, file *model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = true
	file.ProcessingStatus = model.ProcessingStatusCompleted
	s.files[file.ID] = file
	return nil
}

// writeCBRMP3 writes a tagless constant-bitrate MPEG-1 Layer III file:
// 128kbps at 44.1kHz, so 480000 bytes decode to exactly 30 seconds.
func writeCBRMP3(t *testing.T, dir string, size int) string {
	t.Helper()
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func writePNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 100 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	path := filepath.Join(dir, "cover.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func newTestProcessor(files FileStore) *Processor {
	return NewProcessor(nil, files, metadata.NewExtractor(), &metadata.ArtworkProcessor{}, nil, nil)
}

func TestEnqueuePendingAudioFileRunsProcessing(t *testing.T) {
	path := writeCBRMP3(t, t.TempDir(), 480000)
	file := &model.File{ID: 1, FileType: model.FileTypeAudio, FilePath: path, FileSize: 480000, ProcessingStatus: model.ProcessingStatusPending}
	store := newFakeFileStore(file)

	reporter := newMemoryReporter()
	queue := NewQueue(1, reporter)
	p := NewProcessor(queue, store, metadata.NewExtractor(), &metadata.ArtworkProcessor{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	jobID, err := p.EnqueuePendingAudioFile(ctx, path)
	if err != nil {
		t.Fatalf("EnqueuePendingAudioFile failed: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id for a pending audio file")
	}

	if last := waitForTerminal(t, reporter, jobID); last != cache.JobStateSucceeded {
		t.Fatalf("job ended %s, want succeeded", last)
	}
	store.mu.Lock()
	status := file.ProcessingStatus
	store.mu.Unlock()
	if status != model.ProcessingStatusCompleted {
		t.Fatalf("status = %s, want completed", status)
	}
}

func TestEnqueuePendingAudioFileSkipsSettledAndUnknownFiles(t *testing.T) {
	path := writeCBRMP3(t, t.TempDir(), 480000)
	file := &model.File{ID: 1, FileType: model.FileTypeAudio, FilePath: path, FileSize: 480000, ProcessingStatus: model.ProcessingStatusCompleted}
	p := newTestProcessor(newFakeFileStore(file))

	jobID, err := p.EnqueuePendingAudioFile(context.Background(), path)
	if err != nil {
		t.Fatalf("EnqueuePendingAudioFile failed: %v", err)
	}
	if jobID != "" {
		t.Fatalf("job id = %q, want none for an already-processed file", jobID)
	}

	jobID, err = p.EnqueuePendingAudioFile(context.Background(), "/nonexistent/drop.mp3")
	if err != nil {
		t.Fatalf("EnqueuePendingAudioFile failed: %v", err)
	}
	if jobID != "" {
		t.Fatalf("job id = %q, want none for an unregistered path", jobID)
	}
}

func TestProcessAudioFileSuccess(t *testing.T) {
	path := writeCBRMP3(t, t.TempDir(), 480000)
	file := &model.File{ID: 1, FileType: model.FileTypeAudio, FilePath: path, FileSize: 480000, ProcessingStatus: model.ProcessingStatusPending}
	store := newFakeFileStore(file)
	p := newTestProcessor(store)

	if err := p.processAudioFile(context.Background(), 1); err != nil {
		t.Fatalf("processAudioFile failed: %v", err)
	}

	if file.ProcessingStatus != model.ProcessingStatusCompleted {
		t.Fatalf("status = %s, want completed", file.ProcessingStatus)
	}
	if file.Duration == nil || *file.Duration != 30 {
		t.Fatalf("duration = %v, want 30", file.Duration)
	}
	if file.SampleRate == nil || *file.SampleRate != 44100 {
		t.Fatalf("sampleRate = %v, want 44100", file.SampleRate)
	}
	if !store.saved {
		t.Fatal("metadata was never persisted")
	}
}

func TestProcessAudioFileShortAudioFails(t *testing.T) {
	// 464000 bytes at 128kbps is 29 seconds, below the minimum.
	path := writeCBRMP3(t, t.TempDir(), 464000)
	file := &model.File{ID: 1, FileType: model.FileTypeAudio, FilePath: path, FileSize: 464000, ProcessingStatus: model.ProcessingStatusPending}
	store := newFakeFileStore(file)
	p := newTestProcessor(store)

	err := p.processAudioFile(context.Background(), 1)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if file.ProcessingStatus != model.ProcessingStatusFailed {
		t.Fatalf("status = %s, want failed", file.ProcessingStatus)
	}
	if !strings.Contains(file.ProcessingError, "at least 30 seconds") {
		t.Fatalf("error = %q, want the duration rule message", file.ProcessingError)
	}
}

func TestProcessAudioFileCorruptInputFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, make([]byte, 64), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	file := &model.File{ID: 1, FileType: model.FileTypeAudio, FilePath: path, FileSize: 64}
	store := newFakeFileStore(file)
	p := newTestProcessor(store)

	if err := p.processAudioFile(context.Background(), 1); err == nil {
		t.Fatal("expected extraction failure")
	}
	if file.ProcessingStatus != model.ProcessingStatusFailed {
		t.Fatalf("status = %s, want failed", file.ProcessingStatus)
	}
}

func TestProcessArtworkFileNormalizes(t *testing.T) {
	path := writePNG(t, t.TempDir(), 2000, 2000)
	file := &model.File{ID: 2, FileType: model.FileTypeArtwork, FilePath: path, MimeType: "image/png"}
	store := newFakeFileStore(file)
	p := newTestProcessor(store)

	if err := p.processArtworkFile(context.Background(), 2); err != nil {
		t.Fatalf("processArtworkFile failed: %v", err)
	}

	if file.Width == nil || *file.Width != 1400 || file.Height == nil || *file.Height != 1400 {
		t.Fatalf("dimensions = %v x %v, want 1400x1400", file.Width, file.Height)
	}
	if file.MimeType != "image/jpeg" {
		t.Fatalf("mimeType = %s, want image/jpeg", file.MimeType)
	}

	// The file on disk is rewritten as JPEG.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read processed artwork: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatal("processed artwork is not a JPEG")
	}
	if int64(len(data)) != file.FileSize {
		t.Fatalf("fileSize = %d, want %d", file.FileSize, len(data))
	}
}

func TestProcessArtworkFileTooSmallFails(t *testing.T) {
	path := writePNG(t, t.TempDir(), 1000, 1000)
	file := &model.File{ID: 2, FileType: model.FileTypeArtwork, FilePath: path}
	store := newFakeFileStore(file)
	p := newTestProcessor(store)

	if err := p.processArtworkFile(context.Background(), 2); err == nil {
		t.Fatal("expected dimension failure")
	}
	if file.ProcessingStatus != model.ProcessingStatusFailed {
		t.Fatalf("status = %s, want failed", file.ProcessingStatus)
	}
	if !strings.Contains(file.ProcessingError, "1400") && !strings.Contains(file.ProcessingError, "small") {
		t.Fatalf("error = %q, want the dimension rule", file.ProcessingError)
	}
}

func TestProcessAudioFileUnknownID(t *testing.T) {
	p := newTestProcessor(newFakeFileStore())
	if err := p.processAudioFile(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown file")
	}
}
