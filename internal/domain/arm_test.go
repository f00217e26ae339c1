package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestArmDerivedMetricsZeroSpend(t *testing.T) {
	arm := Arm{Platform: PlatformSocial, ID: "a1"}

	assert.Equal(t, 0.0, arm.ROAS())
	assert.Equal(t, 0.0, arm.ProfitROAS())
	assert.Equal(t, 0.0, arm.LTVROAS())
	assert.True(t, math.IsInf(arm.CPA(), 1))
	assert.Equal(t, 0.0, arm.CTR())
}

func TestArmROASAndCPA(t *testing.T) {
	arm := Arm{
		Platform:    PlatformSocial,
		ID:          "a1",
		Spend:       200,
		Revenue:     800,
		Conversions: 4,
		Clicks:      50,
		Impressions: 2000,
	}

	assert.Equal(t, 4.0, arm.ROAS())
	assert.Equal(t, 50.0, arm.CPA())
	assert.Equal(t, 2.5, arm.CTR())
}

func TestArmProfitDefaultsMargin(t *testing.T) {
	arm := Arm{Platform: PlatformSearch, ID: "g1", Spend: 100, Revenue: 1000}

	// No margin overlay: 1000*0.2 - 100 = 100
	assert.InDelta(t, 100.0, arm.Profit(), 1e-9)
	assert.InDelta(t, 1.0, arm.ProfitROAS(), 1e-9)

	arm.ProfitMargin = f64(0.5)
	assert.InDelta(t, 400.0, arm.Profit(), 1e-9)
	assert.InDelta(t, 4.0, arm.ProfitROAS(), 1e-9)
}

func TestArmLTVROASFallsBackToROAS(t *testing.T) {
	arm := Arm{Platform: PlatformSocial, ID: "a1", Spend: 100, Revenue: 300, Conversions: 10}

	// Without LTV the fallback is plain ROAS.
	assert.InDelta(t, 3.0, arm.LTVROAS(), 1e-9)

	arm.LTV = f64(50)
	// 50 * 10 / 100 = 5
	assert.InDelta(t, 5.0, arm.LTVROAS(), 1e-9)

	// LTV present but zero conversions: fallback again.
	arm.Conversions = 0
	assert.InDelta(t, 3.0, arm.LTVROAS(), 1e-9)
}

func TestArmHasSufficientData(t *testing.T) {
	arm := Arm{Platform: PlatformSocial, ID: "a1", Conversions: 10, Impressions: 1000}
	assert.True(t, arm.HasSufficientData())

	arm.Conversions = 9
	assert.False(t, arm.HasSufficientData())

	arm.Conversions = 10
	arm.Impressions = 999
	assert.False(t, arm.HasSufficientData())
}

func TestArmCurrentBudget(t *testing.T) {
	arm := Arm{Platform: PlatformSocial, ID: "a1", Spend: 120}
	assert.Equal(t, 120.0, arm.CurrentBudget())

	arm.CurrentDailyBudget = f64(200)
	assert.Equal(t, 200.0, arm.CurrentBudget())
}

func TestArmValidate(t *testing.T) {
	valid := Arm{Platform: PlatformSocial, ID: "a1", ProfitMargin: f64(0.3), AudienceQualityScore: f64(0.9)}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		arm  Arm
	}{
		{"missing id", Arm{Platform: PlatformSocial}},
		{"bad platform", Arm{Platform: "tiktok", ID: "x"}},
		{"negative spend", Arm{Platform: PlatformSocial, ID: "x", Spend: -1}},
		{"margin out of range", Arm{Platform: PlatformSocial, ID: "x", ProfitMargin: f64(1.5)}},
		{"quality out of range", Arm{Platform: PlatformSocial, ID: "x", AudienceQualityScore: f64(-0.1)}},
		{"bad inventory", Arm{Platform: PlatformSocial, ID: "x", InventoryStatus: "backorder"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.arm.Validate())
		})
	}
}

func TestTimeWindowPresets(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	w := Window(WindowYesterday)
	start, end := w.Range(now)
	assert.Equal(t, "2026-03-14", start.Format("2006-01-02"))
	assert.Equal(t, "2026-03-14", end.Format("2006-01-02"))

	w = Window(WindowLast7d)
	start, end = w.Range(now)
	assert.Equal(t, "2026-03-08", start.Format("2006-01-02"))
	assert.Equal(t, "2026-03-15", end.Format("2006-01-02"))

	// Unknown presets default to yesterday.
	w = Window("last_fortnight")
	assert.Equal(t, WindowYesterday, w.Preset)
}

func TestTimeWindowExplicitRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	w := WindowRange(start, end)
	assert.False(t, w.IsPreset())

	gotStart, gotEnd := w.Range(time.Now())
	assert.Equal(t, start, gotStart)
	assert.Equal(t, end, gotEnd)
	assert.Equal(t, "2026-01-01..2026-01-31", w.String())
}
