// Package platform defines the contract between the optimization loop and
// the ad platforms. Concrete adapters live in internal/meta and
// internal/googleads; everything above them works against the Adapter
// interface and the typed Error in this package.
package platform

import (
	"context"
	"time"

	"github.com/adveralabs/adpilot/internal/domain"
)

// Conversion is a normalized conversion signal ready for upload. Social
// uploads address a pixel and carry hashed user data; search uploads address
// a conversion action and carry a click id.
type Conversion struct {
	EventName  string
	EventID    string
	Value      float64
	Currency   string
	Timestamp  time.Time
	UserData   map[string]string
	CustomData map[string]any

	// Search platform click attribution.
	GCLID              string
	ConversionActionID string
}

// Adapter is the capability set every ad platform integration exposes.
//
// Calls never panic upward: they return either a populated result or a
// neutral result plus a *platform.Error whose Kind tells the loop what to do.
type Adapter interface {
	// Platform identifies which platform this adapter speaks to.
	Platform() domain.Platform

	// FetchInsights pulls performance rows for an account over a time
	// window and normalizes them into Arms. Malformed rows are skipped,
	// never fatal.
	FetchInsights(ctx context.Context, accountRef string, window domain.TimeWindow, level domain.Level) ([]domain.Arm, error)

	// UpdateBudget sets the daily budget, in whole currency units, for
	// the entity behind armID. Unit conversion to the platform's native
	// denomination happens inside the adapter.
	UpdateBudget(ctx context.Context, armID string, dailyBudget float64) error

	// UploadConversion sends one conversion signal to the destination
	// (pixel id or conversion action resource, per platform).
	UploadConversion(ctx context.Context, destination string, conv Conversion) error
}
