package metadata

// Distribution policy bounds for uploaded audio.
const (
	MinDurationSeconds = 30
	MinSampleRate      = 44100
	MinBitrate         = 128000
	MinFileSizeBytes   = 480000 // Roughly 30 seconds at 128kbps
)

// ValidationResult is the structured outcome of the audio policy checks.
// Errors hard-fail the file; warnings never affect validity.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateAudio applies the distribution policy rules to extracted
// metadata. Every rule is evaluated; nothing short-circuits.
func ValidateAudio(meta *AudioMetadata, fileSizeBytes int64) ValidationResult {
	result := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if meta.DurationSeconds < MinDurationSeconds {
		result.Errors = append(result.Errors, "Audio file must be at least 30 seconds long")
	}
	if meta.SampleRate < MinSampleRate {
		result.Warnings = append(result.Warnings, "Sample rate is below 44.1kHz")
	}
	if meta.Bitrate > 0 && meta.Bitrate < MinBitrate {
		result.Warnings = append(result.Warnings, "Bitrate is below 128kbps")
	}
	if fileSizeBytes < MinFileSizeBytes {
		result.Warnings = append(result.Warnings, "File size seems unusually small")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
