package domain

import "context"

// Generator is the contract of the external language-model service: one
// free-form prompt in, free-form text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Exporter renders finished course text into a downloadable document.
type Exporter interface {
	// Export returns the document bytes or an export error; no partial document
	// is returned on failure.
	Export(text string) ([]byte, error)
	// Check reports the error Export would return for text without rendering it.
	Check(text string) error
}

// SessionStore keeps per-session pipeline state between requests.
type SessionStore interface {
	Load(ctx context.Context, id string) (SessionState, error)
	Save(ctx context.Context, id string, state SessionState) error
	Delete(ctx context.Context, id string) error
}
