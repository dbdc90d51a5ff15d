// Package tracking turns provider tracking records into canonical display statuses.
package tracking

import (
	"unicode/utf8"

	"github.com/BearBump/TrackNotify/internal/models"
)

const (
	// MaxDisplayLen bounds DisplayText in runes.
	MaxDisplayLen = 200

	// DefaultStatus is used when the provider sent neither a stage nor a description.
	DefaultStatus = "Tracking..."
)

type CanonicalStatus struct {
	DisplayText string
	Class       StageClass
}

// Normalize derives the canonical status of a provider record. It is pure:
// equal records always give equal results.
func Normalize(rec models.ProviderStatusRecord) CanonicalStatus {
	class := Classify(rec.Stage, rec.SubStage)
	if class == StageDelivered {
		return CanonicalStatus{DisplayText: models.StatusDelivered, Class: class}
	}

	text := describe(rec)
	if rec.Location != "" {
		text = text + ", " + rec.Location
	}
	return CanonicalStatus{DisplayText: truncate(text, MaxDisplayLen), Class: class}
}

func describe(rec models.ProviderStatusRecord) string {
	if rec.Description != "" {
		return rec.Description
	}
	if rec.Stage.IsAbsent() {
		return DefaultStatus
	}
	if e, ok := lookupStage(rec.Stage, rec.SubStage); ok {
		return e.description
	}
	return "Status: " + rec.Stage.String()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
