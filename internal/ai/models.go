package ai

// QuoteItem is one material line extracted from the user's description.
type QuoteItem struct {
	// CategoryID is the top-level material bucket (e.g. "metal", "paper", "ewaste").
	CategoryID string `json:"category_id"`

	// SubcategoryID narrows the bucket (e.g. "iron", "copper", "newspaper").
	SubcategoryID string `json:"subcategory_id"`

	// Material is the human-readable label shown back to the user.
	Material string `json:"material"`

	// WeightKg is the model's best guess at the quantity. Zero when the user
	// gave no quantity at all.
	WeightKg float64 `json:"weight_kg"`

	// PricePerKg is the rough market rate in paise per kilogram.
	PricePerKg int64 `json:"price_per_kg"`
}

// QuoteResult captures the structured output from the AI model.
type QuoteResult struct {
	// Items are the recognized material lines.
	Items []QuoteItem `json:"items"`

	// EstimatedAmount is the rough total in paise, derived from the items.
	EstimatedAmount int64 `json:"estimated_amount"`

	// Reply is a short, friendly response summarizing the quote for the user.
	Reply string `json:"reply"`
}
