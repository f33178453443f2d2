package style

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"known style", string(ParseWritingStyle("Technical")), "technical"},
		{"unknown style", string(ParseWritingStyle("poetic")), "professional"},
		{"unknown structure", string(ParsePostStructure("zigzag")), "custom"},
		{"hyphenated structure", string(ParsePostStructure(" list-based ")), "list-based"},
		{"unknown tone", string(ParseTone("grumpy")), "professional"},
		{"unknown usage", string(ParseUsage("lots")), "moderate"},
		{"unknown sentences", string(ParseSentenceStructure("")), "mixed"},
		{"unknown hook", string(ParseHookStyle("joke")), "statement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Defaults()
	override := Preferences{
		Tone:       ToneAnalytical,
		PostLength: LengthRange{Max: 1800},
		Topics:     []string{"go", "platform"},
	}
	got := Merge(base, override)

	if got.Tone != ToneAnalytical {
		t.Errorf("expected override tone, got %q", got.Tone)
	}
	if got.WritingStyle != StyleProfessional {
		t.Errorf("expected default style kept, got %q", got.WritingStyle)
	}
	if got.PostLength.Min != 100 || got.PostLength.Max != 1800 {
		t.Errorf("expected per-bound length merge, got %+v", got.PostLength)
	}
	override.Topics[0] = "changed"
	if got.Topics[0] != "go" {
		t.Error("merged topics should not alias the override")
	}
}

func TestResolve_SnapsUnknownValues(t *testing.T) {
	p := Resolve(Preferences{WritingStyle: "poetic", PostStructure: "zigzag", EmojiUsage: "tons"})
	if p.WritingStyle != StyleProfessional || p.PostStructure != StructureCustom || p.EmojiUsage != UsageModerate {
		t.Errorf("unexpected resolution %+v", p)
	}
	if Resolve(Preferences{}).PostStructure != "" {
		t.Error("unset structure should stay unset")
	}
}

func TestValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
	bad := Preferences{Tone: "grumpy", PostLength: LengthRange{Min: 900, Max: 300}}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "tone") || !strings.Contains(err.Error(), "post_length") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}

func TestSet(t *testing.T) {
	var p Preferences
	if err := p.Set("writing_style", "casual"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Set("post_length.max", "1500"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Set("topics", "go, ai ,,leadership"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.WritingStyle != StyleCasual || p.PostLength.Max != 1500 || len(p.Topics) != 3 {
		t.Errorf("unexpected preferences %+v", p)
	}
	if err := p.Set("tone", "grumpy"); err == nil {
		t.Error("expected error for unknown tone")
	}
	if err := p.Set("font", "comic"); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := p.Set("post_length.min", "12abc"); err == nil {
		t.Error("expected error for invalid number")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.yaml")
	content := `writing_style: storytelling
post_structure: storytelling
tone: inspirational
post_length:
  min: 1200
hashtag_usage: frequent
topics: [leadership, engineering]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.WritingStyle != StyleStorytelling || p.PostLength.Min != 1200 || len(p.Topics) != 2 {
		t.Errorf("unexpected preferences %+v", p)
	}

	badPath := filepath.Join(dir, "bad.yaml")
	os.WriteFile(badPath, []byte("tone: grumpy\n"), 0o644)
	if _, err := LoadFile(badPath); err == nil {
		t.Error("expected validation error for unknown tone")
	}
}

func TestJSONRoundTripThroughStoreFormat(t *testing.T) {
	in := Preferences{WritingStyle: StyleTechnical, PostLength: LengthRange{Min: 500, Max: 900}}
	s, err := EncodeJSON(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeJSON(s)
	if err != nil {
		t.Fatal(err)
	}
	if out.WritingStyle != in.WritingStyle || out.PostLength != in.PostLength {
		t.Errorf("expected %+v, got %+v", in, out)
	}
	if empty, err := DecodeJSON(""); err != nil || empty.WritingStyle != "" {
		t.Errorf("expected zero preferences for empty input, got %+v %v", empty, err)
	}
}

func TestBuild_Storytelling(t *testing.T) {
	tpl := Build(Preferences{WritingStyle: StyleStorytelling, PostStructure: StructureStorytelling})

	if tpl.MinNarrativeFraction != 0.5 {
		t.Errorf("expected 0.5 narrative fraction, got %v", tpl.MinNarrativeFraction)
	}
	names := make([]string, len(tpl.Sections))
	for i, s := range tpl.Sections {
		names[i] = s.Name
	}
	if strings.Join(names, ",") != "opening hook,story,key takeaways,closing" {
		t.Errorf("unexpected section order %v", names)
	}
	if tpl.Sections[2].MinItems != 3 || tpl.Sections[2].MaxItems != 6 {
		t.Errorf("takeaways should be 3-6 bullets, got %+v", tpl.Sections[2])
	}
	if !tpl.Sections[3].Optional {
		t.Error("closing should be optional")
	}

	rendered := tpl.String()
	for _, want := range []string{"storytelling", "1. opening hook", "At least 50%", "3-5 hashtags"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered template missing %q:\n%s", want, rendered)
		}
	}
}

func TestBuild_NoStructureUsesDefaults(t *testing.T) {
	tpl := Build(Preferences{})
	if tpl.Structure != "" {
		t.Errorf("expected no structure, got %q", tpl.Structure)
	}
	if len(tpl.Sections) != len(defaultSections) {
		t.Errorf("expected default sections, got %d", len(tpl.Sections))
	}
	if tpl.MinNarrativeFraction != 0 {
		t.Error("no narrative constraint without a storytelling structure")
	}
	if tpl.Style != StyleProfessional || tpl.Tone != ToneProfessional {
		t.Errorf("expected defaults, got %s/%s", tpl.Style, tpl.Tone)
	}
}

func TestBuild_EveryStructureHasSections(t *testing.T) {
	for _, s := range PostStructures {
		if len(Build(Preferences{PostStructure: s}).Sections) == 0 {
			t.Errorf("structure %q has no sections", s)
		}
	}
}
