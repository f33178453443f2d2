package stages

import (
	"context"
	"log/slog"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/loop"
	"github.com/valpere/postcraft/internal/store"
	"github.com/valpere/postcraft/internal/translator"
)

// PostSaver persists a finished run.
type PostSaver interface {
	SavePost(ctx context.Context, p store.NewPost) (string, error)
}

// DuplicateFinder looks for an earlier post close to a new one.
type DuplicateFinder interface {
	FindSimilarPost(ctx context.Context, userID, content string, threshold float64) (*store.SimilarPost, bool, error)
}

// Finalize stores the final draft, its history and the loop outcome.
type Finalize struct {
	saver     PostSaver
	generator string
	dup       DuplicateFinder
	threshold float64
	logger    *slog.Logger
}

func NewFinalize(saver PostSaver, generatorName string, logger *slog.Logger) *Finalize {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalize{saver: saver, generator: generatorName, logger: logger}
}

// WithDuplicateCheck warns when the new post is at least threshold similar
// to an earlier post of the same user.
func (s *Finalize) WithDuplicateCheck(f DuplicateFinder, threshold float64) *Finalize {
	s.dup, s.threshold = f, threshold
	return s
}

func (s *Finalize) Name() string { return "finalize" }

func (s *Finalize) Run(ctx context.Context, wc *internal.WorkContext) error {
	res, err := loop.ResultFrom(wc)
	if err != nil {
		return err
	}

	post := store.NewPost{
		UserID:    wc.String(internal.KeyUserID),
		Input:     wc.String(internal.KeyInput),
		Generator: s.generator,
		Result:    res,
		History:   wc.History,
		Source: store.Source{
			Type:     wc.String(internal.KeyInputType),
			Ref:      wc.String(internal.KeySourceRef),
			Title:    wc.String(internal.KeySourceTitle),
			Language: wc.String(internal.KeySourceLanguage),
			Content:  wc.String(internal.KeyProcessedContent),
		},
	}
	if v, ok := wc.Get(internal.KeyTranslations); ok {
		if trs, ok := v.([]translator.Translation); ok {
			for _, tr := range trs {
				post.Translations = append(post.Translations, store.Translation{
					Language: tr.Language,
					Text:     tr.Text,
					Service:  tr.Service,
				})
			}
		}
	}

	if s.dup != nil && s.threshold > 0 {
		similar, found, err := s.dup.FindSimilarPost(ctx, post.UserID, res.FinalDraft, s.threshold)
		switch {
		case err != nil:
			s.logger.Warn("duplicate check failed", "error", err)
		case found:
			s.logger.Warn("post is very similar to an earlier one", "post_id", similar.ID, "similarity", similar.Similarity)
			wc.Set(internal.KeySimilarPost, *similar)
		}
	}

	id, err := s.saver.SavePost(ctx, post)
	if err != nil {
		return err
	}
	wc.Set(internal.KeyPostID, id)
	s.logger.Info("post saved", "post_id", id, "versions", len(post.History), "translations", len(post.Translations))
	return nil
}
