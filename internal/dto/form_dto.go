package dto

import (
	"change-intake-service/internal/domain"
	"change-intake-service/internal/formrules"
)

// ClassifyRequest carries the four questionnaire answers
type ClassifyRequest struct {
	Duration  string `json:"duration" binding:"required" example:"1_to_3_months"`
	Scope     string `json:"scope" binding:"required" example:"2_to_3_teams"`
	Relevance string `json:"relevance" binding:"required" example:"medium"`
	Risk      string `json:"risk" binding:"required" example:"low"`
}

// Answers converts the request into classifier input.
func (r ClassifyRequest) Answers() formrules.Answers {
	return formrules.Answers{
		Duration:  r.Duration,
		Scope:     r.Scope,
		Relevance: r.Relevance,
		Risk:      r.Risk,
	}
}

// TierInfo describes a tier to requesters
type TierInfo struct {
	Tier          formrules.Tier `json:"tier"`
	Label         string         `json:"label"`
	Description   string         `json:"description"`
	RequiredCount int            `json:"required_count"`
	OptionalCount int            `json:"optional_count"`
	HiddenCount   int            `json:"hidden_count"`
}

// ClassificationResponse is the result of classifying a questionnaire
type ClassificationResponse struct {
	TierInfo
	Rule    string            `json:"rule"`
	Answers formrules.Answers `json:"answers"`
}

// CatalogResponse is the form layout of one tier
type CatalogResponse struct {
	TierInfo
	Sections []formrules.RuledSection `json:"sections"`
	// ExternalKeys lists the workflow engine keys of the visible fields.
	ExternalKeys []string `json:"external_keys"`
}

// ValidateRequest carries form values keyed by internal field id
type ValidateRequest struct {
	Tier   string               `json:"tier" binding:"required" example:"standard"`
	Values formrules.FormValues `json:"values"`
}

// ValidationResponse reports the findings for a set of form values
type ValidationResponse struct {
	Tier          formrules.Tier     `json:"tier"`
	Issues        formrules.Issues   `json:"issues"`
	ErrorCount    int                `json:"error_count"`
	WarningCount  int                `json:"warning_count"`
	InfoCount     int                `json:"info_count"`
	Blocking      bool               `json:"blocking"`
	NeedsReview   bool               `json:"needs_review"`
	Progress      formrules.Progress `json:"progress"`
	MissingFields []string           `json:"missing_fields"`
}

// SavedClassificationResponse is a classification stored with a session
type SavedClassificationResponse struct {
	ClassificationResponse
	Autosave domain.AutosaveResult `json:"autosave"`
}
