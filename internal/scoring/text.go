package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SemanticJudge rates on a 1-10 scale whether two descriptions refer to the
// same physical object. Implementations live in internal/ai.
type SemanticJudge interface {
	JudgeSameObject(ctx context.Context, nameA, descA, nameB, descB string) (int, error)
}

type TextMethod string

const (
	TextMethodSemantic  TextMethod = "semantic"
	TextMethodLexical   TextMethod = "lexical"
	TextMethodEmbedding TextMethod = "embedding"
)

const (
	minJudgement = 1
	maxJudgement = 10
)

var errJudgeOutOfRange = errors.New("judgement outside 1-10")

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "was": {},
	"were": {}, "are": {}, "from": {}, "have": {}, "has": {}, "had": {}, "but": {},
	"not": {}, "you": {}, "your": {}, "its": {}, "our": {}, "their": {}, "there": {},
	"they": {}, "them": {}, "then": {}, "than": {}, "into": {}, "onto": {}, "near": {},
	"about": {}, "some": {}, "any": {}, "all": {}, "can": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "been": {}, "being": {}, "very": {}, "just": {},
	"also": {}, "who": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"lost": {}, "found": {}, "item": {}, "please": {}, "someone": {}, "today": {},
	"yesterday": {}, "around": {},
}

// TextScorer produces the textual "same object" signal. With no judge
// configured it always uses the lexical fallback.
type TextScorer struct {
	judge   SemanticJudge
	timeout time.Duration
}

func NewTextScorer(judge SemanticJudge, timeout time.Duration) *TextScorer {
	return &TextScorer{judge: judge, timeout: timeout}
}

// Score never fails: judge errors, timeouts and out-of-range answers degrade
// to LexicalScore.
func (s *TextScorer) Score(ctx context.Context, a, b Item) (float64, TextMethod) {
	if s == nil || s.judge == nil {
		return LexicalScore(a.Name+" "+a.Description, b.Name+" "+b.Description), TextMethodLexical
	}

	n, err := s.judgeWithTimeout(ctx, a, b)
	if err == nil && (n < minJudgement || n > maxJudgement) {
		err = fmt.Errorf("%w: %d", errJudgeOutOfRange, n)
	}
	if err != nil {
		slog.Warn("semantic judge degraded, using lexical fallback", "error", err)
		return LexicalScore(a.Name+" "+a.Description, b.Name+" "+b.Description), TextMethodLexical
	}
	return JudgementToScore(n), TextMethodSemantic
}

// judgeWithTimeout runs the judge on its own goroutine so a judge that
// ignores its context still cannot hold the caller past the deadline.
func (s *TextScorer) judgeWithTimeout(ctx context.Context, a, b Item) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type answer struct {
		n   int
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- answer{err: fmt.Errorf("semantic judge panicked: %v", r)}
			}
		}()
		n, err := s.judge.JudgeSameObject(ctx, a.Name, a.Description, b.Name, b.Description)
		ch <- answer{n: n, err: err}
	}()

	select {
	case ans := <-ch:
		return ans.n, ans.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// JudgementToScore rescales a 1-10 judgement to 0-100.
func JudgementToScore(n int) float64 {
	return clamp(float64(n-minJudgement)/float64(maxJudgement-minJudgement)*100, 0, 100)
}

// LexicalScore is the Jaccard overlap of the significant tokens of two texts,
// scaled to 0-100. NeutralScore is returned when either side has no
// significant tokens.
func LexicalScore(textA, textB string) float64 {
	setA := Tokenize(textA)
	setB := Tokenize(textB)
	if len(setA) == 0 || len(setB) == 0 {
		return NeutralScore
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return clamp(100*float64(intersection)/float64(union), 0, 100)
}

// Tokenize lowercases text, strips punctuation and drops tokens of two runes
// or fewer as well as stop words.
func Tokenize(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}
