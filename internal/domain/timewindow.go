package domain

import (
	"fmt"
	"time"
)

// Preset time windows recognized by both platform adapters.
const (
	WindowYesterday = "yesterday"
	WindowLast7d    = "last_7d"
	WindowLast30d   = "last_30d"
)

// Level is the reporting granularity requested from a platform.
type Level string

const (
	LevelCampaign Level = "campaign"
	LevelAdset    Level = "adset"
	LevelAd       Level = "ad"
	LevelAccount  Level = "account"
)

// TimeWindow is either a named preset or an explicit [Start,End] date pair.
// A zero Start/End means the preset applies.
type TimeWindow struct {
	Preset string    `json:"preset,omitempty"`
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
}

// Window builds a TimeWindow from a preset name, defaulting to yesterday
// for unrecognized values.
func Window(preset string) TimeWindow {
	switch preset {
	case WindowYesterday, WindowLast7d, WindowLast30d:
		return TimeWindow{Preset: preset}
	default:
		return TimeWindow{Preset: WindowYesterday}
	}
}

// WindowRange builds an explicit date-range window.
func WindowRange(start, end time.Time) TimeWindow {
	return TimeWindow{Start: start, End: end}
}

// IsPreset reports whether the window is a named preset rather than an
// explicit range.
func (w TimeWindow) IsPreset() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Range resolves the window to concrete start and end dates relative to now.
func (w TimeWindow) Range(now time.Time) (start, end time.Time) {
	if !w.IsPreset() {
		return w.Start, w.End
	}
	day := now.Truncate(24 * time.Hour)
	switch w.Preset {
	case WindowLast7d:
		return day.AddDate(0, 0, -7), day
	case WindowLast30d:
		return day.AddDate(0, 0, -30), day
	default:
		y := day.AddDate(0, 0, -1)
		return y, y
	}
}

// String renders the window for logging and reports.
func (w TimeWindow) String() string {
	if w.IsPreset() {
		return w.Preset
	}
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
