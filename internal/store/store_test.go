package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/style"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	// Migration is idempotent.
	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	s2.Close()
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, " Olena ", "Olena@Example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.Name != "Olena" || u.Email != "olena@example.com" {
		t.Errorf("expected normalized user, got %+v", u)
	}

	if _, err := s.CreateUser(ctx, "Other", "olena@example.com"); err == nil {
		t.Error("expected duplicate email to fail")
	}
	if _, err := s.CreateUser(ctx, "", "x@example.com"); err == nil {
		t.Error("expected missing name to fail")
	}

	byEmail, err := s.GetUser(ctx, "OLENA@example.com")
	if err != nil {
		t.Fatalf("GetUser by email failed: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("expected %s, got %s", u.ID, byEmail.ID)
	}

	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}

func TestStore_Preferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Taras", "taras@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, found, err := s.GetPreferences(ctx, u.ID); err != nil || found {
		t.Fatalf("expected no preferences yet, got found=%v err=%v", found, err)
	}

	first := style.Preferences{Tone: style.ToneAnalytical}
	if err := s.SavePreferences(ctx, u.ID, first); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}
	second := style.Preferences{Tone: style.ToneEnthusiastic, Topics: []string{"go", "teams"}}
	if err := s.SavePreferences(ctx, u.ID, second); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}

	got, found, err := s.GetPreferences(ctx, u.ID)
	if err != nil || !found {
		t.Fatalf("expected preferences, got found=%v err=%v", found, err)
	}
	if got.Tone != style.ToneEnthusiastic || len(got.Topics) != 2 {
		t.Errorf("expected latest preferences, got %+v", got)
	}

	history, err := s.PreferenceHistory(ctx, u.ID)
	if err != nil {
		t.Fatalf("PreferenceHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Preferences.Tone != style.ToneEnthusiastic {
		t.Errorf("expected newest first, got %+v", history[0].Preferences)
	}
}

func TestStore_SavePreferences_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SavePreferences(ctx, "missing", style.Preferences{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	u, _ := s.CreateUser(ctx, "A", "a@example.com")
	if err := s.SavePreferences(ctx, u.ID, style.Preferences{Tone: "grumpy"}); err == nil {
		t.Error("expected invalid preferences to be rejected")
	}
}

func samplePost(userID, final string, iterations int, exitedEarly bool) NewPost {
	now := time.Now()
	var history []internal.DraftVersion
	for i := 1; i <= iterations; i++ {
		history = append(history, internal.DraftVersion{
			VersionNumber:       i,
			Content:             final,
			Feedback:            "tighten the hook",
			ProducedAtIteration: i,
			CreatedAt:           now,
		})
	}
	return NewPost{
		UserID:    userID,
		Input:     "Remote work",
		Generator: "mock",
		Result: internal.LoopResult{
			FinalDraft:        final,
			IterationsUsed:    iterations,
			ExitedEarly:       exitedEarly,
			TerminationReason: "all quality checks passed",
		},
		History: history,
		Source:  Source{Type: "topic", Ref: "Remote work", Language: "en"},
		Translations: []Translation{
			{Language: "uk", Text: "Віддалена робота", Service: "llm:mock"},
		},
	}
}

func TestStore_SavePost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, _ := s.CreateUser(ctx, "A", "a@example.com")
	id, err := s.SavePost(ctx, samplePost(u.ID, "Final post text", 2, true))
	if err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	p, err := s.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if p.Content != "Final post text" || p.IterationsUsed != 2 || !p.ExitedEarly || p.UserID != u.ID {
		t.Errorf("unexpected post: %+v", p)
	}
	if p.Source == nil || p.Source.Type != "topic" || p.Source.Language != "en" {
		t.Errorf("unexpected source: %+v", p.Source)
	}

	history, err := s.PostHistory(ctx, id)
	if err != nil {
		t.Fatalf("PostHistory failed: %v", err)
	}
	if len(history) != 2 || history[0].VersionNumber != 1 || history[1].VersionNumber != 2 {
		t.Errorf("unexpected history: %+v", history)
	}
	if history[0].Feedback != "tighten the hook" {
		t.Errorf("expected feedback, got %q", history[0].Feedback)
	}

	translations, err := s.PostTranslations(ctx, id)
	if err != nil {
		t.Fatalf("PostTranslations failed: %v", err)
	}
	if len(translations) != 1 || translations[0].Language != "uk" {
		t.Errorf("unexpected translations: %+v", translations)
	}
}

func TestStore_SavePost_Anonymous(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := samplePost("", "Anonymous post", 0, true)
	p.Source = Source{}
	id, err := s.SavePost(ctx, p)
	if err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	got, err := s.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.UserID != "" || got.Source != nil {
		t.Errorf("expected no user and no source, got %+v", got)
	}
}

func TestStore_SavePost_Empty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SavePost(context.Background(), samplePost("", "   ", 1, false)); err == nil {
		t.Error("expected empty post to be rejected")
	}
}

func TestStore_ListAndDeletePosts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateUser(ctx, "A", "a@example.com")
	b, _ := s.CreateUser(ctx, "B", "b@example.com")

	first, _ := s.SavePost(ctx, samplePost(a.ID, "first", 1, true))
	if _, err := s.SavePost(ctx, samplePost(a.ID, "second", 1, true)); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if _, err := s.SavePost(ctx, samplePost(b.ID, "third", 1, true)); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	all, err := s.ListPosts(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 posts, got %d", len(all))
	}

	mine, _ := s.ListPosts(ctx, a.ID, 0)
	if len(mine) != 2 {
		t.Errorf("expected 2 posts for user, got %d", len(mine))
	}
	if mine[0].Content != "second" {
		t.Errorf("expected newest first, got %q", mine[0].Content)
	}

	limited, _ := s.ListPosts(ctx, "", 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	if err := s.DeletePost(ctx, first); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted post to be gone, got %v", err)
	}
	if history, _ := s.PostHistory(ctx, first); len(history) != 0 {
		t.Errorf("expected history to cascade, got %d versions", len(history))
	}
	if err := s.DeletePost(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx, "")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if empty.TotalPosts != 0 || empty.CapHitRatio != 0 {
		t.Errorf("expected empty stats, got %+v", empty)
	}

	for _, p := range []NewPost{
		samplePost("", "one", 1, true),
		samplePost("", "two", 3, true),
		samplePost("", "three", 5, false),
		samplePost("", "four", 5, false),
	} {
		if _, err := s.SavePost(ctx, p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	stats, err := s.Stats(ctx, "")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPosts != 4 || stats.ExitedEarly != 2 || stats.CapReached != 2 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.CapHitRatio != 0.5 {
		t.Errorf("expected cap-hit ratio 0.5, got %v", stats.CapHitRatio)
	}
	if stats.MeanIterations != 3.5 || stats.MaxIterations != 5 {
		t.Errorf("unexpected iteration stats: %+v", stats)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"привіт", "привет", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStore_FindSimilarPost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.SavePost(ctx, samplePost("", "Shipping small batches beats big launches.", 1, true))

	got, found, err := s.FindSimilarPost(ctx, "", "Shipping small batches beats big launches!", 0.9)
	if err != nil {
		t.Fatalf("FindSimilarPost failed: %v", err)
	}
	if !found || got.ID != id {
		t.Fatalf("expected to find %s, got %+v", id, got)
	}

	if _, found, _ := s.FindSimilarPost(ctx, "", "Something else entirely", 0.9); found {
		t.Error("expected no match for unrelated text")
	}
	if _, found, _ := s.FindSimilarPost(ctx, "", "Shipping small batches beats big launches.", 0); found {
		t.Error("expected threshold 0 to disable matching")
	}
}
