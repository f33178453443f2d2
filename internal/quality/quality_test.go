package quality

import (
	"strings"
	"testing"
)

func TestEvaluateLength_Boundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		chars    int
		expected Status
	}{
		{"empty", 0, StatusBelowRange},
		{"just below band", 1299, StatusBelowRange},
		{"band min", 1300, StatusGood},
		{"band max", 1600, StatusGood},
		{"just above band", 1601, StatusAboveRangeButAcceptable},
		{"ceiling", 3000, StatusAboveRangeButAcceptable},
		{"over ceiling", 3001, StatusAboveRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := EvaluateLength(strings.Repeat("a", tt.chars), th)
			if v.Status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, v.Status)
			}
			if v.MeasuredValue != float64(tt.chars) {
				t.Errorf("expected measured %d, got %g", tt.chars, v.MeasuredValue)
			}
			if v.Axis != AxisLength {
				t.Errorf("expected axis length, got %s", v.Axis)
			}
			if v.Feedback == "" {
				t.Error("expected feedback")
			}
		})
	}
}

func TestEvaluateLength_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("є", 1300)
	v := EvaluateLength(text, DefaultThresholds())
	if v.MeasuredValue != 1300 {
		t.Errorf("expected 1300 characters, got %g", v.MeasuredValue)
	}
	if v.Status != StatusGood {
		t.Errorf("expected good, got %s", v.Status)
	}
}

func TestEvaluateTags(t *testing.T) {
	th := DefaultThresholds()

	tags := func(n int) string {
		var sb strings.Builder
		sb.WriteString("Some post text.")
		for i := 0; i < n; i++ {
			sb.WriteString(" #tag")
			sb.WriteString(strings.Repeat("x", i+1))
		}
		return sb.String()
	}

	tests := []struct {
		count    int
		expected Status
	}{
		{0, StatusMissing},
		{1, StatusBelowRange},
		{2, StatusBelowRange},
		{3, StatusGood},
		{5, StatusGood},
		{6, StatusAboveRangeButAcceptable},
		{10, StatusAboveRangeButAcceptable},
		{11, StatusAboveRange},
	}

	for _, tt := range tests {
		v := EvaluateTags(tags(tt.count), th)
		if v.Status != tt.expected {
			t.Errorf("count %d: expected %s, got %s", tt.count, tt.expected, v.Status)
		}
		if v.MeasuredValue != float64(tt.count) {
			t.Errorf("count %d: measured %g", tt.count, v.MeasuredValue)
		}
	}
}

func TestHashtags_UnicodeAndBareHash(t *testing.T) {
	got := Hashtags("Go #golang #штучнийІнтелект # alone #under_score #42")
	want := []string{"#golang", "#штучнийІнтелект", "#under_score", "#42"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestEvaluateSymbols(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		text     string
		expected Status
		density  float64
	}{
		{"empty", "", StatusMissing, 0},
		{"no emoji", "plain text only", StatusMissing, 0},
		// 1 emoji in 200 chars = 0.5%
		{"band min", strings.Repeat("a", 199) + "🚀", StatusGood, 0.5},
		// 1 emoji in 400 chars = 0.25%
		{"below band", strings.Repeat("a", 399) + "🚀", StatusBelowRange, 0.25},
		// 1 emoji in 20 chars = 5%
		{"band max", strings.Repeat("a", 19) + "🚀", StatusGood, 5},
		// 2 emoji in 10 chars = 20%
		{"above band", strings.Repeat("a", 8) + "🚀✅", StatusAboveRange, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := EvaluateSymbols(tt.text, th)
			if v.Status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, v.Status)
			}
			if v.MeasuredValue != tt.density {
				t.Errorf("expected density %g, got %g", tt.density, v.MeasuredValue)
			}
		})
	}
}

func TestSymbolDensity_Rounding(t *testing.T) {
	// 1 emoji in 3 chars = 33.333...%
	_, density := SymbolDensity("ab🎉")
	if density != 33.33 {
		t.Errorf("expected 33.33, got %g", density)
	}
}

func TestEvaluate_EmptyTextNeverPanics(t *testing.T) {
	verdicts := Evaluate("", DefaultThresholds())
	if len(verdicts) != len(Axes) {
		t.Fatalf("expected %d verdicts, got %d", len(Axes), len(verdicts))
	}
	want := map[Axis]Status{
		AxisLength:        StatusBelowRange,
		AxisTagDensity:    StatusMissing,
		AxisSymbolDensity: StatusMissing,
	}
	for _, v := range verdicts {
		if v.Status != want[v.Axis] {
			t.Errorf("%s: expected %s, got %s", v.Axis, want[v.Axis], v.Status)
		}
		if v.MeasuredValue != 0 {
			t.Errorf("%s: expected measured 0, got %g", v.Axis, v.MeasuredValue)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	text := strings.Repeat("Building resilient systems takes practice. ", 35) + "#go #systems #reliability 🚀💡"
	th := DefaultThresholds()

	first := Evaluate(text, th)
	second := Evaluate(text, th)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("verdict %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := DefaultThresholds()
	bad.LengthBand = Band[int]{Min: 2000, Max: 1000}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for inverted length band")
	}

	bad = DefaultThresholds()
	bad.TagCeiling = 2
	if err := bad.Validate(); err == nil {
		t.Error("expected error for tag ceiling below band")
	}

	bad = DefaultThresholds()
	bad.SymbolDensityBand = Band[float64]{Min: -1, Max: 5}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative density")
	}
}

func TestBand_Contains(t *testing.T) {
	tests := []struct {
		band Band[float64]
		v    float64
		want bool
	}{
		{Band[float64]{Min: 0.5, Max: 5}, 0.5, true},
		{Band[float64]{Min: 0.5, Max: 5}, 5, true},
		{Band[float64]{Min: 0.5, Max: 5}, 0.49, false},
		{Band[float64]{Min: 0.5, Max: 5}, 5.01, false},
		{Band[float64]{Min: 2, Max: 2}, 2, true},
	}
	for _, tt := range tests {
		if got := tt.band.Contains(tt.v); got != tt.want {
			t.Errorf("%v.Contains(%g) = %v, want %v", tt.band, tt.v, got, tt.want)
		}
	}
}

func TestEvaluate_CustomBands(t *testing.T) {
	th := DefaultThresholds()
	th.LengthBand = Band[int]{Min: 10, Max: 20}
	th.LengthCeiling = 30
	th.TagBand = Band[int]{Min: 1, Max: 1}
	th.TagCeiling = 2
	th.SymbolDensityBand = Band[float64]{Min: 5, Max: 10}

	tests := []struct {
		name string
		text string
		axis Axis
		want Status
	}{
		{"length inside band", strings.Repeat("a", 15), AxisLength, StatusGood},
		{"length over band", strings.Repeat("a", 25), AxisLength, StatusAboveRangeButAcceptable},
		{"length over ceiling", strings.Repeat("a", 31), AxisLength, StatusAboveRange},
		{"single tag", "text #one", AxisTagDensity, StatusGood},
		{"two tags", "text #one #two", AxisTagDensity, StatusAboveRangeButAcceptable},
		{"three tags", "text #one #two #three", AxisTagDensity, StatusAboveRange},
		{"dense enough", "🚀" + strings.Repeat("a", 11), AxisSymbolDensity, StatusGood},
		{"too sparse", "🚀" + strings.Repeat("a", 49), AxisSymbolDensity, StatusBelowRange},
		{"too dense", "🚀🚀" + strings.Repeat("a", 8), AxisSymbolDensity, StatusAboveRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range Evaluate(tt.text, th) {
				if v.Axis == tt.axis && v.Status != tt.want {
					t.Errorf("%s: expected %s, got %s (%g)", tt.axis, tt.want, v.Status, v.MeasuredValue)
				}
			}
		})
	}
}

func TestSymbols_CountsEachGlyph(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"🚀🚀🚀 launch", 3},
		{"🚀 launch 🚀", 2},
		{"中文 文本 ⓂⒶ", 0},
		{"✅ done ☀ sunny", 2},
	}
	for _, tt := range tests {
		if got := len(Symbols(tt.text)); got != tt.want {
			t.Errorf("Symbols(%q): expected %d, got %d", tt.text, tt.want, got)
		}
	}
}
