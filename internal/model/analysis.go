package model

// Maturity describes how digitally mature a business appears.
type Maturity string

const (
	MaturityLow     Maturity = "low"
	MaturityMedium  Maturity = "medium"
	MaturityHigh    Maturity = "high"
	MaturityUnknown Maturity = "unknown"
)

// Analysis groups the enrichment payloads attached to a lead.
type Analysis struct {
	Website *WebsiteAnalysis `json:"website_analysis,omitempty"`
	Social  *SocialAnalysis  `json:"social_analysis,omitempty"`
	AI      *AIAnalysis      `json:"ai_analysis,omitempty"`
}

// Enriched reports whether any analysis payload is attached.
func (a Analysis) Enriched() bool {
	return a.Website != nil || a.Social != nil || a.AI != nil
}

// WebsiteAnalysis is the result of inspecting a lead's website.
type WebsiteAnalysis struct {
	URL           string   `json:"url"`
	Reachable     bool     `json:"reachable"`
	Modern        bool     `json:"modern"`
	HTTPS         bool     `json:"https"`
	Mobile        bool     `json:"mobile"`
	TechStack     []string `json:"tech_stack"`
	SocialLinks   []string `json:"social_links,omitempty"`
	PainPoints    []string `json:"pain_points"`
	Opportunities []string `json:"opportunities"`
	Maturity      Maturity `json:"maturity"`
	ITNeeds       int      `json:"it_needs"`
	Score         int      `json:"score"`
	Error         string   `json:"error,omitempty"`
}

// SocialAnalysis summarizes a lead's social media footprint.
type SocialAnalysis struct {
	Platforms     []string `json:"platforms"`
	PlatformCount int      `json:"platform_count"`
	Score         int      `json:"score"`
}

// AIAnalysis is the qualitative assessment produced by the inference client,
// or by the heuristic fallback when no provider answered.
type AIAnalysis struct {
	IntelligenceScore     int      `json:"intelligence_score"`
	DigitalMaturity       Maturity `json:"digital_maturity"`
	BusinessSize          string   `json:"business_size"`
	PainPoints            []string `json:"pain_points"`
	Opportunities         []string `json:"opportunities"`
	RiskFactors           []string `json:"risk_factors"`
	Priority              string   `json:"priority"`
	ConversionProbability float64  `json:"conversion_probability"`
	Timeline              string   `json:"timeline"`
	Summary               string   `json:"summary,omitempty"`
	Provider              string   `json:"provider"`
	Model                 string   `json:"model,omitempty"`
	Fallback              bool     `json:"fallback"`
}
