// Package ai adapts external model providers to the scoring and matching
// capabilities: a semantic same-object judge and text/image embeddings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/ahmetcoskunkizilkaya/reunite-backend/internal/ai"

var (
	ErrNoProvider     = errors.New("no AI provider available")
	ErrEmptyResponse  = errors.New("no response from AI")
	ErrBadJudgement   = errors.New("AI answer is not a judgement between 1 and 10")
	ErrProviderStatus = errors.New("AI API error")
)

// Rubric bands of the judge prompt.
const (
	bandExact     = "9-10: same type of object, same model, and matching colour or distinctive feature"
	bandClose     = "7-8: same type of object and same model, but missing one secondary detail"
	bandSameType  = "4-6: same type of object but a different model, or only a few shared details"
	bandDifferent = "1-3: different types of object"
)

const judgeSystemPrompt = `You compare two reports from a lost-and-found service and decide whether they describe the same physical object, not merely similar objects.

Rate your confidence from 1 to 10:
` + bandExact + `
` + bandClose + `
` + bandSameType + `
` + bandDifferent + `

Answer with the single integer only.`

func judgePrompt(nameA, descA, nameB, descB string) string {
	return fmt.Sprintf("Report A\nName: %s\nDescription: %s\n\nReport B\nName: %s\nDescription: %s\n\nRating:",
		strings.TrimSpace(nameA), strings.TrimSpace(descA),
		strings.TrimSpace(nameB), strings.TrimSpace(descB))
}

var judgementPattern = regexp.MustCompile(`-?\d+`)

// ParseJudgement extracts the first integer of a model answer. Values
// outside 1-10 are rejected rather than clamped.
func ParseJudgement(answer string) (int, error) {
	m := judgementPattern.FindString(answer)
	if m == "" {
		return 0, fmt.Errorf("%w: %q", ErrBadJudgement, truncate(answer, 40))
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > 10 {
		return 0, fmt.Errorf("%w: %q", ErrBadJudgement, m)
	}
	return n, nil
}

// ChainJudge asks each judge in order and returns the first valid answer.
type ChainJudge []scoring.SemanticJudge

func (c ChainJudge) JudgeSameObject(ctx context.Context, nameA, descA, nameB, descB string) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ai.judge_chain")
	defer span.End()

	var errs []error
	for _, j := range c {
		if j == nil {
			continue
		}
		n, err := j.JudgeSameObject(ctx, nameA, descA, nameB, descB)
		if err == nil {
			return n, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		slog.Warn("semantic judge failed, trying next provider", "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return 0, ErrNoProvider
	}
	span.RecordError(errors.Join(errs...))
	return 0, errors.Join(append([]error{ErrNoProvider}, errs...)...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
