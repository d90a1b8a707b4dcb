// Package insight generates productivity analyses for a day's activities
// with the Gemini API. Generation never fails from the caller's point of
// view: a missing API key yields a simulated analysis and any request or
// decode failure yields a degraded placeholder.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/observability"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Config carries the Gemini connection parameters.
type Config struct {
	APIKey string
	Model  string
}

// Generator implements domain.Analyzer on top of the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGenerator builds a Generator. An empty API key is not an error: the
// generator then serves simulated analyses, matching local development
// without credentials.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	g := &Generator{model: model, log: log}
	if cfg.APIKey == "" {
		log.Warn("no Gemini API key configured, analyses will be simulated")
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// AnalyzeDay produces the score/summary/suggestions triple for a day.
func (g *Generator) AnalyzeDay(ctx context.Context, activities []domain.Activity) domain.Insight {
	if g.client == nil {
		observability.RecordAnalysis(false)
		return simulatedInsight()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(activities)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		g.log.Warn("analysis request failed", zap.Error(err))
		observability.RecordAnalysis(true)
		return degradedInsight()
	}

	text := resp.Text()
	if text == "" {
		g.log.Warn("analysis returned empty response")
		observability.RecordAnalysis(true)
		return degradedInsight()
	}

	insight, err := parseInsight([]byte(text))
	if err != nil {
		g.log.Warn("analysis response unparseable", zap.Error(err))
		observability.RecordAnalysis(true)
		return degradedInsight()
	}

	observability.RecordAnalysis(false)
	return insight
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"productivityScore": {Type: genai.TypeInteger},
		"summary":           {Type: genai.TypeString},
		"suggestions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
}

func buildPrompt(activities []domain.Activity) string {
	var lines []string
	for _, a := range activities {
		lines = append(lines, fmt.Sprintf("- %d mins on %s (%s)", a.Minutes, a.Title, a.Category))
	}

	return fmt.Sprintf(`Analyze the following daily activity log and provide productivity insights.

Activities:
%s

Return a JSON object with:
1. productivityScore (0-100 integer)
2. summary (2-3 sentences max)
3. suggestions (array of 3 short bullet points for improvement)`, strings.Join(lines, "\n"))
}

func parseInsight(raw []byte) (domain.Insight, error) {
	var insight domain.Insight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return domain.Insight{}, err
	}
	if insight.Score < 0 {
		insight.Score = 0
	}
	if insight.Score > 100 {
		insight.Score = 100
	}
	return insight, nil
}

func simulatedInsight() domain.Insight {
	return domain.Insight{
		Score:   85,
		Summary: "API key missing. This is a simulated analysis. Your day looks balanced with a good mix of work and rest.",
		Suggestions: []string{
			"Configure GEMINI_API_KEY to get real AI insights.",
			"Keep up the consistency!",
		},
	}
}

func degradedInsight() domain.Insight {
	return domain.Insight{
		Score:       0,
		Summary:     "Could not generate analysis at this time.",
		Suggestions: []string{"Try again later."},
	}
}
