// Package ocr transcribes archive page photographs with Gemini vision and
// estimates transcription confidence from the uncertainty markers the prompts
// ask the model to emit.
package ocr

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Document types select the transcription prompt.
const (
	DocTypeHistorical  = "historical_document"
	DocTypeHandwritten = "handwritten"
	DocTypeTyped       = "typed"
	DocTypeMixed       = "mixed"
)

// Service transcribes page images with a Gemini vision model.
type Service struct {
	model  string
	apiKey string
}

// NewService creates a Service for the given model. An empty apiKey falls
// back to the GEMINI_API_KEY environment variable at call time.
func NewService(model, apiKey string) *Service {
	return &Service{model: model, apiKey: apiKey}
}

// Transcription is the result of one page transcription.
type Transcription struct {
	Text       string  `json:"text" yaml:"text"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Transcribe sends a page image to Gemini and returns the transcription with
// an estimated confidence.
func (s *Service) Transcribe(ctx context.Context, imagePath, documentType string) (*Transcription, error) {
	apiKey := s.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(imagePath), imageData),
		genai.Text(promptFor(documentType)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	text := string(txt)
	return &Transcription{Text: text, Confidence: EstimateConfidence(text)}, nil
}

// EstimateConfidence scores a transcription from its uncertainty markers.
// Each [?] or [illegible] marker costs ten words' worth of confidence.
func EstimateConfidence(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	markers := strings.Count(text, "[?]") + strings.Count(text, "[illegible]")
	confidence := math.Max(0, 1-float64(markers)/float64(words)*10)
	return math.Round(confidence*1000) / 1000
}

func imageFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}

// promptFor returns the transcription prompt for a document type. Unknown
// types get the historical-document prompt.
func promptFor(documentType string) string {
	switch documentType {
	case DocTypeHandwritten:
		return handwrittenPrompt
	case DocTypeTyped:
		return typedPrompt
	case DocTypeMixed:
		return mixedPrompt
	default:
		return historicalPrompt
	}
}

const historicalPrompt = `You are an expert at transcribing historical documents from the New York State Common School system (1800s-1900s).

Please transcribe this document image following these rules:
1. Preserve original spelling, capitalization, and punctuation exactly as written
2. Maintain original line breaks and formatting where possible
3. For unclear text, use [?] to indicate uncertainty
4. For completely illegible sections, use [illegible]
5. Note any stamps, seals, or marginal annotations in brackets [stamp: ...]
6. Preserve archaic spellings and abbreviations (e.g., "inst." for instant, "&c" for etc.)

Additional context:
- Common terms: selectmen, freeholders, trustees, district, common school
- Typical content: meeting minutes, district formations, tax rolls, teacher appointments
- Date formats often use "instant" to mean current month

Transcribe the complete text from the image:`

const handwrittenPrompt = `You are an expert at reading 19th century American handwriting, particularly administrative and legal documents.

Transcribe this handwritten document with special attention to:
1. Period-appropriate script styles and letterforms
2. Common abbreviations and contractions of the era
3. Preserve exact spelling even if archaic
4. Use [?] for uncertain characters or words
5. Note any corrections, insertions, or strikethroughs as [correction: ...]
6. Identify different hands if multiple writers present as [different hand:]

Focus on accuracy over interpretation. Transcribe exactly what is written:`

const typedPrompt = `Transcribe this typewritten historical document exactly as it appears.

Rules:
1. Preserve all formatting, spacing, and alignment
2. Maintain original typos and spelling
3. Note any handwritten additions as [handwritten: ...]
4. Indicate stamps or seals as [stamp: ...]
5. Use [?] for unclear characters due to print quality
6. Preserve headers, footers, and page numbers

Transcribe the document:`

const mixedPrompt = `This document contains both typewritten and handwritten text. Transcribe all content exactly.

Instructions:
1. Clearly distinguish between typed and handwritten sections
2. Use [typed:] and [handwritten:] markers when switching between modes
3. Preserve all original text exactly as written
4. Note any forms, tables, or structured layouts
5. Use [?] for uncertain text
6. Indicate any stamps, seals, or official markings

Transcribe all visible text:`
