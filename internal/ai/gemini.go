package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements QuoteProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Use Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"

	// Quoting should be stable, not creative.
	model.SetTemperature(0.2)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// ParseQuote analyzes a scrap description and returns structured item lines.
func (p *GeminiProvider) ParseQuote(ctx context.Context, description string) (*QuoteResult, error) {
	fullPrompt := fmt.Sprintf("%s\n\nUser Description: %s", quoteSystemPrompt, description)

	resp, err := p.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	// Clean up potential markdown formatting (though json mode should handle this, safety first).
	cleanJSON := cleanJSONString(responseText.String())

	var result QuoteResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}

	return &result, nil
}

const quoteSystemPrompt = `Role: You are the quoting assistant for "ScrapMate", a doorstep scrap pickup service in India.

TASK:
The user describes scrap they want to sell, in free text (English, Hindi, or Hinglish).
Extract structured item lines and a rough total estimate.

RULES:

1. CATEGORIES:
   - "metal": iron, steel, copper, brass, aluminium, tin.
   - "paper": newspaper, books, cardboard, office paper.
   - "plastic": bottles, hard plastic, mixed plastic.
   - "ewaste": appliances, wires, batteries, electronics.
   - "glass": bottles, sheet glass.
   - Use "other"/"mixed" only when nothing above fits.

2. WEIGHTS:
   - Convert stated quantities to kilograms ("5 kilo" -> 5, "quintal" -> 100).
   - IF no quantity is given for an item, set "weight_kg" to 0 and say in the
     reply that the final amount depends on weighing at pickup.

3. PRICES:
   - "price_per_kg" is in PAISE (1 rupee = 100 paise). Use typical Indian
     kabadiwala market rates, e.g. newspaper ~1400, iron ~2800, copper ~60000,
     mixed plastic ~1000.
   - "estimated_amount" = sum of weight_kg * price_per_kg over all items with a
     known weight, rounded to a whole number of paise.

4. REPLY:
   - One or two short sentences, plain and friendly, in the language the user
     wrote in. Always mention that the estimate is indicative and the vendor
     weighs items at pickup.
   - No markdown formatting in the reply field.

5. Output JSON Schema:
{
  "items": [
    {
      "category_id": "string",
      "subcategory_id": "string",
      "material": "string",
      "weight_kg": number,
      "price_per_kg": integer (paise)
    }
  ],
  "estimated_amount": integer (paise),
  "reply": "string (user facing response)"
}
`

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
