package matchingtest

import (
	"context"
	"errors"
	"sync"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/google/uuid"
)

// Notification is one call captured by RecordingNotifier.
type Notification struct {
	UserID  uuid.UUID
	Kind    string
	Title   string
	Body    string
	Payload map[string]string
}

type RecordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

var _ matching.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind, title, body string, payload map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{UserID: userID, Kind: kind, Title: title, Body: body, Payload: payload})
}

func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.sent))
	copy(out, n.sent)
	return out
}

// For returns the notifications sent to userID, oldest first.
func (n *RecordingNotifier) For(userID uuid.UUID) []Notification {
	var out []Notification
	for _, s := range n.All() {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

var ErrEmbedderDown = errors.New("embedder unavailable")

// StubEmbedder delegates to the configured funcs and fails when one is nil.
type StubEmbedder struct {
	TextFunc  func(text string) ([]float64, error)
	ImageFunc func(data []byte) ([]float64, error)
}

var _ matching.Embedder = StubEmbedder{}

func (e StubEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	if e.TextFunc == nil {
		return nil, ErrEmbedderDown
	}
	return e.TextFunc(text)
}

func (e StubEmbedder) EmbedImage(_ context.Context, data []byte) ([]float64, error) {
	if e.ImageFunc == nil {
		return nil, ErrEmbedderDown
	}
	return e.ImageFunc(data)
}

// JudgeFunc adapts a func to scoring.SemanticJudge.
type JudgeFunc func(ctx context.Context, nameA, descA, nameB, descB string) (int, error)

func (f JudgeFunc) JudgeSameObject(ctx context.Context, nameA, descA, nameB, descB string) (int, error) {
	return f(ctx, nameA, descA, nameB, descB)
}
