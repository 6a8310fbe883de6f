package model

import (
	"strings"
	"time"
)

// Platform is a distribution destination. Read-only reference data for
// the distribution machine; rows are seeded at startup.
type Platform struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	DisplayName string `json:"displayName" gorm:"size:100;not null"`
	Domain      string `json:"domain" gorm:"size:255"` // Used for URL templating, e.g. open.spotify.com
	IsActive    bool   `json:"isActive" gorm:"default:true"`

	MaxFileSize      int64  `json:"maxFileSize"`                        // Bytes
	SupportedFormats string `json:"supportedFormats" gorm:"size:500"`   // Comma-separated extensions

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the gorm default.
func (Platform) TableName() string { return "platforms" }

// Formats returns the supported format list, lowercased and trimmed.
func (p *Platform) Formats() []string {
	if p.SupportedFormats == "" {
		return nil
	}
	parts := strings.Split(p.SupportedFormats, ",")
	formats := make([]string, 0, len(parts))
	for _, part := range parts {
		if f := strings.ToLower(strings.TrimSpace(part)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// SupportsFormat reports whether the platform accepts the given extension.
// An empty format list means the platform accepts anything.
func (p *Platform) SupportsFormat(ext string) bool {
	formats := p.Formats()
	if len(formats) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, f := range formats {
		if f == ext {
			return true
		}
	}
	return false
}
