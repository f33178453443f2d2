package internal

import "time"

// Metadata keys written by pipeline stages.
const (
	KeyInput            = "input"
	KeyProcessedContent = "processed_content"
	KeyInputType        = "input_type"
	KeySourceRef        = "source_ref"
	KeySourceTitle      = "source_title"
	KeySourceLanguage   = "source_language"
	KeyUserID           = "user_id"
	KeyPreferences      = "preferences"
	KeyStyleTemplate    = "style_template"
	KeyLoopResult       = "loop_result"
	KeyTranslations     = "translations"
	KeyPostID           = "post_id"
	KeySimilarPost      = "similar_post"
)

// PostRequest is what a host hands to the pipeline for one post.
type PostRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Input     string    `json:"input"`
	Timestamp time.Time `json:"timestamp"`
}

// DraftVersion is one entry of the refinement history. Never mutated after
// creation.
type DraftVersion struct {
	VersionNumber       int       `json:"version_number"`
	Content             string    `json:"content"`
	Feedback            string    `json:"feedback,omitempty"`
	ProducedAtIteration int       `json:"produced_at_iteration"`
	CreatedAt           time.Time `json:"created_at"`
}

// LoopResult is produced once when the refinement loop terminates.
type LoopResult struct {
	FinalDraft        string `json:"final_draft"`
	IterationsUsed    int    `json:"iterations_used"`
	ExitedEarly       bool   `json:"exited_early"`
	Cancelled         bool   `json:"cancelled"`
	TerminationReason string `json:"termination_reason"`
}

// WorkContext is the state threaded through every pipeline stage. Each
// pipeline run owns its own instance.
type WorkContext struct {
	Draft    string
	Metadata map[string]any
	History  []DraftVersion
}

// NewWorkContext returns an empty context seeded with metadata.
func NewWorkContext(metadata map[string]any) *WorkContext {
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return &WorkContext{Metadata: md}
}

// Set records a metadata value; the last writer wins.
func (w *WorkContext) Set(key string, value any) {
	if w.Metadata == nil {
		w.Metadata = make(map[string]any)
	}
	w.Metadata[key] = value
}

// Get returns a metadata value.
func (w *WorkContext) Get(key string) (any, bool) {
	v, ok := w.Metadata[key]
	return v, ok
}

// String returns a metadata value as a string, or "" when missing or not a string.
func (w *WorkContext) String(key string) string {
	v, ok := w.Metadata[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// AppendVersion records a new draft in the history and makes it current.
func (w *WorkContext) AppendVersion(content, feedback string, iteration int) DraftVersion {
	v := DraftVersion{
		VersionNumber:       len(w.History) + 1,
		Content:             content,
		Feedback:            feedback,
		ProducedAtIteration: iteration,
		CreatedAt:           time.Now(),
	}
	w.History = append(w.History, v)
	w.Draft = content
	return v
}
