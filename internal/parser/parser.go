// Package parser extracts requested actions from model output.
//
// Extraction is layered from most to least reliable: structured tool calls,
// embedded JSON, function-call idioms, action keywords and finally natural
// language intents. Every layer runs and the outputs are concatenated in that
// order without deduplication; Confidence tells the layers apart.
package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// Confidence per extraction layer.
const (
	ConfidenceStructured = 1.0
	ConfidenceRawArgs    = 0.8
	ConfidenceJSONBlock  = 0.8
	ConfidenceFunction   = 0.8
	ConfidenceKeyword    = 0.75
	ConfidenceNatural    = 0.7
)

// Extractor is one text strategy. Fn must be pure.
type Extractor struct {
	Name string
	Fn   func(text string) []models.ActionRequest
}

// TextExtractors is the default text pipeline, most reliable first.
func TextExtractors() []Extractor {
	return []Extractor{
		{Name: "json_blocks", Fn: ExtractJSONBlocks},
		{Name: "function_calls", Fn: ExtractFunctionCalls},
		{Name: "action_keywords", Fn: ExtractActionKeywords},
		{Name: "natural_language", Fn: ExtractNaturalLanguage},
	}
}

type Parser struct {
	extractors []Extractor
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Parser {
	return NewWithExtractors(TextExtractors(), logger)
}

func NewWithExtractors(extractors []Extractor, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{extractors: extractors, logger: logger}
}

// Parse runs the structured layer on raw and the text layers on the content of all its choices.
// It never fails; the result may be empty.
func (p *Parser) Parse(raw *llms.ContentResponse) []models.ActionRequest {
	requests := p.run("structured", func() []models.ActionRequest {
		return ExtractStructured(raw)
	})

	requests = append(requests, p.ParseText(responseText(raw))...)

	p.logger.Info("parsed tool calls", "count", len(requests))
	return requests
}

// ParseText runs only the text layers.
func (p *Parser) ParseText(text string) []models.ActionRequest {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var requests []models.ActionRequest
	for _, e := range p.extractors {
		requests = append(requests, p.run(e.Name, func() []models.ActionRequest {
			return e.Fn(text)
		})...)
	}
	return requests
}

// run isolates one layer: a panic degrades that layer to no output.
func (p *Parser) run(layer string, fn func() []models.ActionRequest) (out []models.ActionRequest) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("tool call extractor failed", "layer", layer, "panic", r)
			out = nil
		}
	}()

	found := fn()
	out = found[:0:0]
	for _, req := range found {
		if strings.TrimSpace(req.Name) == "" {
			p.logger.Warn("dropping tool call without a name", "layer", layer)
			continue
		}
		if req.Arguments == nil {
			req.Arguments = map[string]any{}
		}
		out = append(out, req)
	}
	if len(out) > 0 {
		p.logger.Debug("extractor matched", "layer", layer, "count", len(out))
	}
	return out
}

// Format renders requests for humans.
func Format(requests []models.ActionRequest) string {
	if len(requests) == 0 {
		return "No tool calls detected"
	}
	var b strings.Builder
	for i, req := range requests {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, req.Name)
		if len(req.Arguments) > 0 {
			args, err := json.MarshalIndent(req.Arguments, "   ", "  ")
			if err != nil {
				args = []byte(fmt.Sprintf("%v", req.Arguments))
			}
			fmt.Fprintf(&b, "\n   Args: %s", args)
		}
		if req.Confidence != ConfidenceStructured {
			fmt.Fprintf(&b, "\n   Confidence: %g", req.Confidence)
		}
	}
	return b.String()
}
