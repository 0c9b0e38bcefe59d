package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/ai"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scorePolicy     string
	scorePolicyFile string
	scoreJudge      bool
	scoreJSON       bool
	scoreDimensions int
)

var scoreCmd = &cobra.Command{
	Use:   "score LOST.json FOUND.json",
	Short: "Score one lost report against one found report",
	Long: `Score a lost/found pair read from two JSON files in the report creation
format (title, description, category, attributes, location, occurred_at).

Text embeddings come from the local hash embedder. With --judge the
Anthropic judge (ANTHROPIC_API_KEY) rates the text; otherwise the lexical
fallback does.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, mcfg, err := resolvePolicy(scorePolicy, scorePolicyFile)
		if err != nil {
			return err
		}

		var judge scoring.SemanticJudge
		if scoreJudge {
			key := os.Getenv("ANTHROPIC_API_KEY")
			if key == "" {
				return errors.New("--judge needs ANTHROPIC_API_KEY")
			}
			model := os.Getenv("ANTHROPIC_MODEL")
			if model == "" {
				model = ai.DefaultAnthropicModel
			}
			judge = ai.NewAnthropicJudge(key, model)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		embedder := ai.NewHashEmbedder(scoreDimensions)
		lost, err := loadItem(ctx, args[0], embedder)
		if err != nil {
			return err
		}
		found, err := loadItem(ctx, args[1], embedder)
		if err != nil {
			return err
		}

		engine := scoring.NewEngine(policy, scoring.NewTextScorer(judge, 20*time.Second))
		res := engine.Score(ctx, lost, found)

		if scoreJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printResult(cmd.OutOrStdout(), res, mcfg)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scorePolicy, "policy", string(scoring.PolicyJudged), "built-in policy: judged or attribute")
	scoreCmd.Flags().StringVar(&scorePolicyFile, "policy-file", "", "YAML policy file, overrides --policy")
	scoreCmd.Flags().BoolVar(&scoreJudge, "judge", false, "use the Anthropic semantic judge")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the result as JSON")
	scoreCmd.Flags().IntVar(&scoreDimensions, "dimensions", 256, "hash embedding dimensions")
	rootCmd.AddCommand(scoreCmd)
}

func resolvePolicy(name, file string) (scoring.Policy, matching.Config, error) {
	cfg := &config.Config{ScoringPolicy: name, ScoringPolicyFile: file}
	return cfg.MatchingPolicy()
}

func loadItem(ctx context.Context, path string, embedder matching.Embedder) (scoring.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.Item{}, err
	}
	var req dto.CreateReportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return scoring.Item{}, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return scoring.Item{}, fmt.Errorf("%s: title is required", path)
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			return scoring.Item{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	r := models.Report{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Attributes:  req.Attributes,
		OccurredAt:  req.OccurredAt,
	}
	r.SetLocation(req.Location.Point())
	if vec, err := embedder.EmbedText(ctx, r.EmbeddingText()); err == nil {
		r.TextEmbedding = vec
	}
	return r.ScoringItem(), nil
}

func printResult(out io.Writer, res scoring.Result, mcfg matching.Config) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	b := res.Breakdown

	fmt.Fprintf(out, "\n%s\n\n", cyan(fmt.Sprintf("=== Match score (%s policy) ===", b.Policy)))
	fmt.Fprintf(out, "%s\n", yellow("Signals:"))
	fmt.Fprintf(out, "  Time:      %6.2f  %s\n", b.TimeScore, bar(b.TimeScore, 30))
	fmt.Fprintf(out, "  Distance:  %6.2f  %s\n", b.DistanceScore, bar(b.DistanceScore, 30))
	fmt.Fprintf(out, "  Text:      %6.2f  %s (%s)\n", b.TextScore, bar(b.TextScore, 30), b.TextMethod)
	fmt.Fprintf(out, "  Category:  %6.2f  %s\n", b.CategoryScore, bar(b.CategoryScore, 30))
	fmt.Fprintf(out, "  Jaccard:   %6.2f\n", b.AttributeJaccard)
	if b.EmbeddingCosine != nil {
		fmt.Fprintf(out, "  Cosine:    %6.4f\n", *b.EmbeddingCosine)
	}
	fmt.Fprintln(out)

	verdict := color.New(color.FgRed, color.Bold)
	label := "no match"
	switch {
	case res.Composite >= mcfg.AutoMatchThreshold:
		verdict = color.New(color.FgGreen, color.Bold)
		label = "auto-match"
	case res.Composite > mcfg.ExploratoryThreshold:
		verdict = color.New(color.FgYellow)
		label = "potential match"
	}
	fmt.Fprintf(out, "Composite: %s  %s\n\n", verdict.Sprintf("%.2f", res.Composite), label)
}

func bar(score float64, width int) string {
	filled := int(score / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
