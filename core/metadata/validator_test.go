package metadata

import "testing"

func TestValidateAudio(t *testing.T) {
	tests := []struct {
		name         string
		meta         AudioMetadata
		fileSize     int64
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{
			name:         "clean file",
			meta:         AudioMetadata{DurationSeconds: 30, SampleRate: 44100, Bitrate: 160000},
			fileSize:     1_000_000,
			wantValid:    true,
			wantErrors:   0,
			wantWarnings: 0,
		},
		{
			name:         "too short",
			meta:         AudioMetadata{DurationSeconds: 29, SampleRate: 44100, Bitrate: 160000},
			fileSize:     1_000_000,
			wantValid:    false,
			wantErrors:   1,
			wantWarnings: 0,
		},
		{
			name:         "low sample rate warns only",
			meta:         AudioMetadata{DurationSeconds: 120, SampleRate: 22050, Bitrate: 160000},
			fileSize:     1_000_000,
			wantValid:    true,
			wantErrors:   0,
			wantWarnings: 1,
		},
		{
			name:         "low bitrate warns only",
			meta:         AudioMetadata{DurationSeconds: 120, SampleRate: 44100, Bitrate: 96000},
			fileSize:     1_000_000,
			wantValid:    true,
			wantErrors:   0,
			wantWarnings: 1,
		},
		{
			name:         "missing bitrate never warns",
			meta:         AudioMetadata{DurationSeconds: 120, SampleRate: 44100, Bitrate: 0},
			fileSize:     1_000_000,
			wantValid:    true,
			wantErrors:   0,
			wantWarnings: 0,
		},
		{
			name:         "small file warns only",
			meta:         AudioMetadata{DurationSeconds: 120, SampleRate: 44100, Bitrate: 160000},
			fileSize:     100_000,
			wantValid:    true,
			wantErrors:   0,
			wantWarnings: 1,
		},
		{
			name:         "all rules evaluated independently",
			meta:         AudioMetadata{DurationSeconds: 5, SampleRate: 8000, Bitrate: 64000},
			fileSize:     1000,
			wantValid:    false,
			wantErrors:   1,
			wantWarnings: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAudio(&tt.meta, tt.fileSize)
			if result.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (errors: %v)", result.IsValid, tt.wantValid, result.Errors)
			}
			if len(result.Errors) != tt.wantErrors {
				t.Fatalf("got %d errors %v, want %d", len(result.Errors), result.Errors, tt.wantErrors)
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Fatalf("got %d warnings %v, want %d", len(result.Warnings), result.Warnings, tt.wantWarnings)
			}
			if result.IsValid != (len(result.Errors) == 0) {
				t.Fatal("IsValid must mirror an empty error list")
			}
		})
	}
}
