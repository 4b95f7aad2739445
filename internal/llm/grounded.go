package llm

import "context"

// GroundedFields is what the fallback extraction asks the model for.
type GroundedFields struct {
	InciIngredients []string
	Description     string
}

// ExtractProductFields asks the model for the ingredient list and the
// description of one product page. Returns nil when the model found
// neither.
func (c *Client) ExtractProductFields(ctx context.Context, productName, pageText string) (*GroundedFields, error) {
	prompt := "Extract the following fields from this hair product page.\n" +
		"Product: " + productName + "\n\n" +
		"Return JSON with these fields:\n" +
		"- inci_ingredients: list of individual INCI ingredient names (strings), or null if not found\n" +
		"- description: product description text, or null if not found\n\n" +
		"IMPORTANT: Only extract INCI ingredients if you find a complete ingredient list " +
		"(typically starting with 'Aqua' or 'Water'). Do NOT guess or infer ingredients."

	raw, err := c.ExtractStructured(ctx, pageText, prompt, 2048)
	if err != nil {
		return nil, err
	}

	fields := &GroundedFields{}
	if s, ok := raw["description"].(string); ok {
		fields.Description = s
	}
	if list, ok := raw["inci_ingredients"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				fields.InciIngredients = append(fields.InciIngredients, s)
			}
		}
	}
	if len(fields.InciIngredients) == 0 && fields.Description == "" {
		return nil, nil
	}
	return fields, nil
}

// RelevanceVerdict is the model's answer to whether a page sells a
// hair or scalp product.
type RelevanceVerdict struct {
	HairRelated   bool
	Reason        string
	EvidenceQuote string
}

// ClassifyHairRelevance is the ambiguity tiebreaker for pages the
// keyword taxonomy could not decide.
func (c *Client) ClassifyHairRelevance(ctx context.Context, productName, pageSnippet string) (*RelevanceVerdict, error) {
	prompt := "Based ONLY on the product name and page text below, determine if this is a hair/scalp product.\n" +
		"Return JSON: {\"hair_related\": true/false, \"reason\": \"...\", \"evidence_quote\": \"...\"}\n\n" +
		"Product name: " + productName + "\n"

	raw, err := c.ExtractStructured(ctx, pageSnippet, prompt, 256)
	if err != nil {
		return nil, err
	}

	verdict := &RelevanceVerdict{}
	if b, ok := raw["hair_related"].(bool); ok {
		verdict.HairRelated = b
	}
	if s, ok := raw["reason"].(string); ok {
		verdict.Reason = s
	}
	if s, ok := raw["evidence_quote"].(string); ok {
		verdict.EvidenceQuote = s
	}
	return verdict, nil
}
