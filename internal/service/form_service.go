package service

import (
	"go.uber.org/zap"

	"change-intake-service/internal/dto"
	"change-intake-service/internal/formrules"
	"change-intake-service/internal/metrics"
	"change-intake-service/internal/response"
	"change-intake-service/internal/ruleset"
)

// FormService defines the rule engine operations exposed over HTTP
type FormService interface {
	Questionnaire() []formrules.Question
	Classify(req *dto.ClassifyRequest) (*dto.ClassificationResponse, error)
	Tiers() []dto.TierInfo
	Catalog(tier string, includeHidden bool) (*dto.CatalogResponse, error)
	Validate(req *dto.ValidateRequest) (*dto.ValidationResponse, error)
	TableReport() formrules.TableReport
}

type formServiceImpl struct {
	rules   ruleset.Source
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewFormService creates a new instance of FormService
func NewFormService(rules ruleset.Source, m *metrics.Metrics, logger *zap.Logger) FormService {
	return &formServiceImpl{
		rules:   rules,
		metrics: m,
		logger:  logger,
	}
}

func (s *formServiceImpl) Questionnaire() []formrules.Question {
	return formrules.Questionnaire()
}

func (s *formServiceImpl) Classify(req *dto.ClassifyRequest) (*dto.ClassificationResponse, error) {
	answers := req.Answers()
	if !answers.Complete() {
		return nil, response.NewValidationError("Bitte beantworte alle vier Fragen", "")
	}

	tier, rule := formrules.ClassifyWithReason(answers)
	s.metrics.RecordClassification(string(tier))
	s.logger.Debug("Classified questionnaire",
		zap.String("tier", string(tier)),
		zap.String("rule", rule),
	)

	return &dto.ClassificationResponse{
		TierInfo: newTierInfo(s.rules.Engine(), tier),
		Rule:     rule,
		Answers:  answers,
	}, nil
}

func (s *formServiceImpl) Tiers() []dto.TierInfo {
	engine := s.rules.Engine()
	tiers := formrules.AllTiers()
	infos := make([]dto.TierInfo, 0, len(tiers))
	for _, tier := range tiers {
		infos = append(infos, newTierInfo(engine, tier))
	}
	return infos
}

func (s *formServiceImpl) Catalog(rawTier string, includeHidden bool) (*dto.CatalogResponse, error) {
	tier, err := parseTier(rawTier)
	if err != nil {
		return nil, err
	}

	engine := s.rules.Engine()
	sections := engine.VisibleSections(tier)
	if includeHidden {
		sections = engine.ApplyRules(tier)
	}

	return &dto.CatalogResponse{
		TierInfo:     newTierInfo(engine, tier),
		Sections:     sections,
		ExternalKeys: engine.ExternalKeysForTier(tier),
	}, nil
}

func (s *formServiceImpl) Validate(req *dto.ValidateRequest) (*dto.ValidationResponse, error) {
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	values := req.Values
	if values == nil {
		values = formrules.FormValues{}
	}

	engine := s.rules.Engine()
	issues := engine.Validate(values, tier)
	recordIssues(s.metrics, tier, issues)

	return &dto.ValidationResponse{
		Tier:          tier,
		Issues:        issues,
		ErrorCount:    len(issues.Errors()),
		WarningCount:  len(issues.Warnings()),
		InfoCount:     len(issues.Infos()),
		Blocking:      issues.Blocking(),
		NeedsReview:   issues.NeedsReview(),
		Progress:      engine.Progress(values, tier),
		MissingFields: engine.MissingExternalKeys(tier, values),
	}, nil
}

// TableReport checks the active rule table against the catalog
func (s *formServiceImpl) TableReport() formrules.TableReport {
	return s.rules.Engine().CheckTable()
}

func parseTier(raw string) (formrules.Tier, error) {
	tier, ok := formrules.ParseTier(raw)
	if !ok {
		return "", response.NewValidationError("tier must be one of mini, standard, strategic", raw)
	}
	return tier, nil
}

func newTierInfo(engine *formrules.Engine, tier formrules.Tier) dto.TierInfo {
	rules := engine.DeriveFieldRules(tier)
	return dto.TierInfo{
		Tier:          tier,
		Label:         tier.Label(),
		Description:   tier.Description(),
		RequiredCount: len(rules.Required),
		OptionalCount: len(rules.Optional),
		HiddenCount:   len(rules.Hidden),
	}
}

func recordIssues(m *metrics.Metrics, tier formrules.Tier, issues formrules.Issues) {
	counts := map[string]int{}
	for _, issue := range issues {
		counts[string(issue.Severity)]++
	}
	m.RecordValidationIssues(string(tier), counts)
}
