package summarize

import "strings"

// Tier is a named summary-size bucket.
type Tier struct {
	Name            string
	Guidance        string
	TargetChars     int
	MinChars        int
	MaxChars        int
	MaxOutputTokens int
}

var tiers = map[string]Tier{
	"short": {
		Name:            "short",
		Guidance:        "Be extremely concise. Maximum 2-3 sentences total. Only the absolute core insight.",
		TargetChars:     300,
		MinChars:        150,
		MaxChars:        450,
		MaxOutputTokens: 512,
	},
	"medium": {
		Name:            "medium",
		Guidance:        "Be concise but complete. 1 short paragraph (4-6 sentences). Cover main points briefly.",
		TargetChars:     700,
		MinChars:        400,
		MaxChars:        1000,
		MaxOutputTokens: 1024,
	},
	"long": {
		Name:            "long",
		Guidance:        "Be thorough. 2-3 paragraphs. Include key details and supporting points.",
		TargetChars:     1500,
		MinChars:        1000,
		MaxChars:        2200,
		MaxOutputTokens: 2048,
	},
	"xl": {
		Name:            "xl",
		Guidance:        "Be comprehensive. 4-5 paragraphs. Include context, details, examples, and nuances.",
		TargetChars:     3000,
		MinChars:        2200,
		MaxChars:        4000,
		MaxOutputTokens: 3072,
	},
	"xxl": {
		Name:            "xxl",
		Guidance:        "Be exhaustive. 6-8 paragraphs grouped by theme. Cover every significant argument, example and caveat.",
		TargetChars:     5000,
		MinChars:        4000,
		MaxChars:        7000,
		MaxOutputTokens: 4096,
	},
}

var legacyTiers = map[string]string{
	"S":  "short",
	"M":  "medium",
	"L":  "long",
	"XL": "xl",
}

// DefaultTier is used for empty or unknown length values.
const DefaultTier = "medium"

// ResolveTier accepts the tier names and the legacy S/M/L/XL codes.
func ResolveTier(length string) Tier {
	length = strings.TrimSpace(length)
	if name, ok := legacyTiers[length]; ok {
		return tiers[name]
	}
	if t, ok := tiers[strings.ToLower(length)]; ok {
		return t
	}
	return tiers[DefaultTier]
}
