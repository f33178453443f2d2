package refiner

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/arbiter"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/quality"
)

// makePost builds a draft of exactly chars characters with the given number
// of emoji and hashtags.
func makePost(chars, emojis, tags int) string {
	var tagStr string
	for i := 0; i < tags; i++ {
		tagStr += " #tag" + strconv.Itoa(i)
	}
	filler := chars - utf8.RuneCountInString(tagStr) - emojis
	return strings.Repeat("x", filler) + strings.Repeat("🚀", emojis) + tagStr
}

func review(draft string) ([]quality.Verdict, arbiter.Decision) {
	v := quality.Evaluate(draft, quality.DefaultThresholds())
	return v, arbiter.Decide(v)
}

func contextWith(draft string) *internal.WorkContext {
	wc := internal.NewWorkContext(nil)
	wc.Draft = draft
	return wc
}

func TestRefine_AcceptedDraftReturnedVerbatim(t *testing.T) {
	draft := makePost(1400, 8, 3) + "\n\n  trailing  "
	verdicts, decision := review(draft)
	if !decision.ShouldExit {
		t.Fatalf("fixture should be acceptable: %s", decision.Reason)
	}

	gen := generator.NewScripted("something else entirely")
	r := New(gen, Options{})

	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "tighten it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != draft {
		t.Error("accepted draft was altered")
	}
	if len(gen.Calls()) != 0 {
		t.Errorf("expected no generator calls, got %d", len(gen.Calls()))
	}
}

func TestRefine_ReturnsRevision(t *testing.T) {
	draft := makePost(800, 8, 3)
	verdicts, decision := review(draft)
	want := makePost(1400, 8, 3)

	gen := generator.NewScripted(want)
	r := New(gen, Options{})

	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "add a story")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("expected the generated revision")
	}

	calls := gen.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	changes, _ := calls[0].Input["required_changes"].([]string)
	if len(changes) != 1 {
		t.Errorf("expected one required change (length), got %v", changes)
	}
	if calls[0].Input["reviewer_feedback"] != "add a story" {
		t.Error("reviewer feedback not passed to the generator")
	}
}

func TestRefine_RetriesOnRegression(t *testing.T) {
	draft := makePost(800, 8, 3)
	verdicts, decision := review(draft)
	regressed := makePost(1400, 8, 0)
	good := makePost(1400, 8, 3)

	gen := generator.NewScripted(regressed, good)
	r := New(gen, Options{RegressionRetries: 2})

	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != good {
		t.Error("expected the non-regressing candidate")
	}
	calls := gen.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if _, ok := calls[1].Input["previous_attempt_problems"]; !ok {
		t.Error("retry should describe the regression")
	}
}

func TestRefine_AllCandidatesRegress(t *testing.T) {
	// Short draft with too many hashtags: two blocking axes.
	draft := makePost(800, 8, 12)
	verdicts, decision := review(draft)
	if n := len(arbiter.Blocking(verdicts)); n != 2 {
		t.Fatalf("fixture should block on 2 axes, got %d", n)
	}
	lessBad := makePost(1400, 0, 4)
	worse := makePost(1400, 0, 0)

	gen := generator.NewScripted(worse, lessBad)
	r := New(gen, Options{RegressionRetries: 1})

	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != lessBad {
		t.Error("expected the candidate with the fewest blocking axes")
	}
}

func TestRefine_KeepsDraftWhenCandidatesAreWorse(t *testing.T) {
	// Only length blocks; both candidates lose every hashtag and emoji.
	draft := makePost(800, 8, 3)
	verdicts, decision := review(draft)
	worse := makePost(900, 0, 0)

	gen := generator.NewScripted(worse, worse)
	r := New(gen, Options{RegressionRetries: 1})

	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != draft {
		t.Errorf("expected the current draft to be kept, got %d blocking axes instead of %d",
			len(arbiter.Blocking(quality.Evaluate(got, quality.DefaultThresholds()))),
			len(arbiter.Blocking(verdicts)))
	}
	if len(gen.Calls()) != 2 {
		t.Errorf("expected 2 candidates requested, got %d", len(gen.Calls()))
	}
}

func TestRefine_EqualBlockingCandidateDoesNotReplaceDraft(t *testing.T) {
	// Length blocks before; the candidate fixes length but drops the hashtags.
	draft := makePost(800, 8, 3)
	verdicts, decision := review(draft)
	swapped := makePost(1400, 14, 0)

	r := New(generator.NewScripted(swapped), Options{})
	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != draft {
		t.Error("a candidate trading one blocking axis for another should not be accepted")
	}
}

func TestRefine_GenerationErrorPropagates(t *testing.T) {
	draft := makePost(800, 8, 3)
	verdicts, decision := review(draft)

	gen := generator.NewScripted().FailOn(0, errors.New("503"))
	r := New(gen, Options{})

	_, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "")
	var genErr *generator.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestRefine_EmptyRevisionIsAnError(t *testing.T) {
	draft := makePost(800, 8, 3)
	verdicts, decision := review(draft)

	r := New(generator.NewScripted(""), Options{})
	_, err := r.Refine(context.Background(), contextWith("  "), decision, verdicts, "")
	var genErr *generator.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for empty output, got %v", err)
	}
}

func TestRefine_ProtectsLinksAndMentions(t *testing.T) {
	draft := "Thanks @ana_dev for https://example.com/report. " + makePost(700, 8, 3)
	verdicts, decision := review(draft)

	gen := generator.NewScripted("[PH1] shared [PH0] " + makePost(1300, 8, 3))
	r := New(gen, Options{})

	got, err := r.Refine(context.Background(), contextWith(draft), decision, verdicts, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "@ana_dev shared https://example.com/report ") {
		t.Errorf("placeholders not restored: %q", got[:60])
	}
	sent, _ := calls0Draft(gen)
	if strings.Contains(sent, "https://") || strings.Contains(sent, "@ana_dev") {
		t.Errorf("protected spans leaked to the generator: %q", sent[:60])
	}
}

func calls0Draft(gen *generator.Scripted) (string, bool) {
	calls := gen.Calls()
	if len(calls) == 0 {
		return "", false
	}
	s, ok := calls[0].Input["draft"].(string)
	return s, ok
}

func TestRegressions(t *testing.T) {
	before := []quality.Verdict{
		{Axis: quality.AxisLength, Status: quality.StatusBelowRange},
		{Axis: quality.AxisTagDensity, Status: quality.StatusGood},
		{Axis: quality.AxisSymbolDensity, Status: quality.StatusBelowRange},
	}
	after := []quality.Verdict{
		{Axis: quality.AxisLength, Status: quality.StatusGood},
		{Axis: quality.AxisTagDensity, Status: quality.StatusAboveRange},
		{Axis: quality.AxisSymbolDensity, Status: quality.StatusMissing},
	}
	got := Regressions(before, after)
	if len(got) != 2 {
		t.Fatalf("expected 2 regressions, got %v", got)
	}
	if got[0].Axis != quality.AxisTagDensity || got[1].Axis != quality.AxisSymbolDensity {
		t.Errorf("unexpected regressions %v", got)
	}
}
