package model

import "time"

// Source identifies the external origin that produced a lead.
type Source string

const (
	SourceGoogleMaps   Source = "google_maps"
	SourceGoogleSearch Source = "google_search"
	SourceBingSearch   Source = "bing_search"
	SourceYellowPages  Source = "yellow_pages"
	SourceGooglePlaces Source = "google_places"
	SourceJinaSearch   Source = "jina_search"
	SourceGeneric      Source = "generic"
)

// AllSources returns every known source in default query order.
func AllSources() []Source {
	return []Source{
		SourceGoogleMaps,
		SourceGoogleSearch,
		SourceBingSearch,
		SourceYellowPages,
		SourceGooglePlaces,
		SourceJinaSearch,
	}
}

// UnknownBusinessName is assigned to records that carry contact data but no
// recognizable business name.
const UnknownBusinessName = "Unknown Business"

// Confidence levels assigned by the extractor.
const (
	ConfidenceExtracted = 1.0
	ConfidenceUnnamed   = 0.2
)

// Lead is a candidate business record produced by the acquisition pipeline.
type Lead struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name" validate:"required"`
	Website     string            `json:"website,omitempty" validate:"omitempty,url"`
	Phone       string            `json:"phone,omitempty"`
	Email       string            `json:"email,omitempty" validate:"omitempty,email"`
	Address     string            `json:"address,omitempty"`
	Description string            `json:"description,omitempty"`
	Source      Source            `json:"source"`
	Keyword     string            `json:"keyword,omitempty"`
	Sector      string            `json:"sector,omitempty"`
	Region      string            `json:"region,omitempty"`
	Employees   int               `json:"employees,omitempty"`
	Size        string            `json:"size,omitempty"`
	SocialMedia map[string]string `json:"social_media,omitempty"`
	Confidence  float64           `json:"confidence"`
	Analysis    Analysis          `json:"analysis"`
	Score       *Score            `json:"score,omitempty"`
}

// HasContact reports whether the lead carries at least one contact channel.
func (l *Lead) HasContact() bool {
	return l.Website != "" || l.Phone != "" || l.Email != ""
}

// Text returns the free-text fields used for keyword matching.
func (l *Lead) Text() string {
	return l.Name + " " + l.Description
}

// Score is the composite score attached by the scoring engine.
type Score struct {
	Total           int            `json:"total"`
	Raw             int            `json:"raw"`
	Breakdown       map[string]int `json:"breakdown"`
	Recommendations []string       `json:"recommendations"`
	Quality         Quality        `json:"quality"`
	ScoredAt        time.Time      `json:"scored_at"`
}

// Quality is a coarse classification of a lead's total score.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// ClassifyQuality maps a total score to a quality tier.
func ClassifyQuality(total int) Quality {
	switch {
	case total >= 80:
		return QualityExcellent
	case total >= 60:
		return QualityGood
	case total >= 40:
		return QualityFair
	default:
		return QualityPoor
	}
}
