package ai

import (
	"context"
)

// QuoteProvider defines the contract for AI-assisted scrap quoting.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.) in the future.
type QuoteProvider interface {
	// ParseQuote turns a free-text description of scrap into structured item
	// lines with a rough price estimate. The estimate is advisory only; the
	// final amount is always settled at pickup by weighing.
	ParseQuote(ctx context.Context, description string) (*QuoteResult, error)
}
