package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"change-intake-service/internal/cache"
	"change-intake-service/internal/client"
	"change-intake-service/internal/domain"
	"change-intake-service/internal/dto"
	"change-intake-service/internal/formrules"
	"change-intake-service/internal/metrics"
	"change-intake-service/internal/response"
	"change-intake-service/internal/ruleset"
)

const loadSessionMessage = "Load existing session data"

// IntakeOptions holds the request defaults of the intake operations
type IntakeOptions struct {
	ChatEmailFallback  string
	FormEmailFallback  string
	ContextValueMaxLen int
	// LoadTimeout bounds a shared session load, which outlives the request
	// that started it.
	LoadTimeout time.Duration
}

// DefaultIntakeOptions returns the defaults used when nothing is configured
func DefaultIntakeOptions() IntakeOptions {
	return IntakeOptions{
		ChatEmailFallback:  "anonymous@chat.local",
		FormEmailFallback:  "noreply@example.com",
		ContextValueMaxLen: 100,
		LoadTimeout:        30 * time.Second,
	}
}

// ForwardResult is the answer of a pass-through call
type ForwardResult struct {
	StatusCode int
	// Body is the engine's JSON reply, or a fallback domain.ChatReply.
	Body interface{}
}

// IntakeService defines the operations that talk to the workflow engine
type IntakeService interface {
	NewSessionID() string
	SendChat(ctx context.Context, req *dto.ChatMessageRequest) (*domain.ChatReply, error)
	Forward(ctx context.Context, payload map[string]interface{}) *ForwardResult
	Autosave(ctx context.Context, req *dto.AutosaveRequest) *domain.AutosaveResult
	SaveClassification(ctx context.Context, sessionID string, req *dto.ClassifyRequest) (*dto.SavedClassificationResponse, error)
	LoadSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Submit(ctx context.Context, sessionID string, req *dto.SubmitRequest) (*dto.SubmitResponse, error)
}

// intakeServiceImpl is the implementation of IntakeService
type intakeServiceImpl struct {
	rules    ruleset.Source
	webhook  client.WebhookClient
	sessions cache.SessionCache
	loads    singleflight.Group
	versions *sessionVersions
	opts     IntakeOptions
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewIntakeService creates a new instance of IntakeService
func NewIntakeService(rules ruleset.Source, webhook client.WebhookClient, sessions cache.SessionCache, opts IntakeOptions, m *metrics.Metrics, logger *zap.Logger) IntakeService {
	if sessions == nil {
		sessions = cache.NoOpSessionCache{}
	}
	defaults := DefaultIntakeOptions()
	if opts.ChatEmailFallback == "" {
		opts.ChatEmailFallback = defaults.ChatEmailFallback
	}
	if opts.FormEmailFallback == "" {
		opts.FormEmailFallback = defaults.FormEmailFallback
	}
	if opts.ContextValueMaxLen <= 0 {
		opts.ContextValueMaxLen = defaults.ContextValueMaxLen
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaults.LoadTimeout
	}
	return &intakeServiceImpl{
		rules:    rules,
		webhook:  webhook,
		sessions: sessions,
		versions: newSessionVersions(),
		opts:     opts,
		metrics:  m,
		logger:   logger,
	}
}

// NewSessionID generates a session id for a new conversation
func (s *intakeServiceImpl) NewSessionID() string {
	return "chat_" + uuid.NewString()
}

// SendChat forwards a chat message and always produces a reply the requester
// can read, unless the request itself is invalid
func (s *intakeServiceImpl) SendChat(ctx context.Context, req *dto.ChatMessageRequest) (*domain.ChatReply, error) {
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, response.NewValidationError("session_id und message sind erforderlich", "")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = s.opts.ChatEmailFallback
	}

	message := req.Message
	if req.Context != nil {
		message = renderChatContext(s.rules.Engine(), req.Context, req.Message, s.opts.ContextValueMaxLen)
	}

	raw, err := s.webhook.Post(ctx, domain.ChatRequest{
		SessionID: req.SessionID,
		Message:   message,
		Email:     email,
		Source:    domain.SourceChat,
	})

	reply := s.replyFrom(raw, err, req.SessionID, chatReply)
	s.metrics.RecordChatReply(string(reply.Status))
	return &reply, nil
}

// replyFrom decodes an engine reply or substitutes the matching fallback.
func (s *intakeServiceImpl) replyFrom(raw json.RawMessage, err error, sessionID string, kind replyKind) domain.ChatReply {
	if err == nil {
		var reply domain.ChatReply
		reply, err = decodeReply(raw)
		if err == nil {
			if reply.SessionID == "" {
				reply.SessionID = sessionID
			}
			if strings.TrimSpace(reply.ReplyText) == "" {
				reply.ReplyText = replyNoAnswer
			}
			return reply
		}
		err = &client.WebhookError{Kind: client.KindInvalidJSON, URL: s.webhook.URL(), Body: string(raw), Err: err}
	}

	s.logger.Warn("Answering with fallback reply",
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	return fallbackReply(err, sessionID, s.webhook.URL(), kind)
}

// Forward passes an arbitrary payload through to the workflow engine
func (s *intakeServiceImpl) Forward(ctx context.Context, payload map[string]interface{}) *ForwardResult {
	sessionID, _ := payload["session_id"].(string)

	raw, err := s.webhook.Post(ctx, payload)
	if err == nil {
		return &ForwardResult{StatusCode: http.StatusOK, Body: raw}
	}

	reply := fallbackReply(err, sessionID, s.webhook.URL(), chatReply)
	s.logger.Warn("Forward failed",
		zap.String("session_id", sessionID),
		zap.Error(err),
	)

	status := http.StatusBadGateway
	var werr *client.WebhookError
	switch {
	case reply.Status == domain.StatusInfo:
		status = http.StatusOK
	case errors.As(err, &werr) && werr.Kind == client.KindHTTPStatus:
		status = werr.StatusCode
	case errors.As(err, &werr) && werr.Timeout():
		status = http.StatusGatewayTimeout
	}
	return &ForwardResult{StatusCode: status, Body: reply}
}

// Autosave mirrors field edits to the workflow engine. It never fails the
// caller: problems are reported through the result.
func (s *intakeServiceImpl) Autosave(ctx context.Context, req *dto.AutosaveRequest) *domain.AutosaveResult {
	result := s.autosave(ctx, req)
	s.metrics.RecordAutosave(result.Success)
	return result
}

func (s *intakeServiceImpl) autosave(ctx context.Context, req *dto.AutosaveRequest) *domain.AutosaveResult {
	if strings.TrimSpace(req.SessionID) == "" {
		return &domain.AutosaveResult{Success: false, Error: "session_id is required"}
	}

	engine := s.rules.Engine()
	update := map[string]string{}
	if req.Field != "" && req.Value != nil {
		update[engine.ExternalKey(req.Field)] = *req.Value
	}
	for field, value := range req.FieldUpdate {
		update[engine.ExternalKey(field)] = value
	}
	if len(update) == 0 && req.Classification == nil && req.ProjectClass == "" {
		return &domain.AutosaveResult{Success: false, Error: "nothing to save"}
	}

	source := req.Source
	if source == "" {
		source = domain.SourceAutosave
	}

	raw, err := s.webhook.Post(ctx, domain.AutosaveRequest{
		SessionID:      req.SessionID,
		FieldUpdate:    update,
		Source:         source,
		Classification: req.Classification,
		ProjectClass:   req.ProjectClass,
	})
	s.invalidate(ctx, req.SessionID)

	if err != nil {
		s.logger.Warn("Autosave failed",
			zap.String("session_id", req.SessionID),
			zap.Int("fields", len(update)),
			zap.Error(err),
		)
		message := err.Error()
		var werr *client.WebhookError
		if errors.As(err, &werr) && werr.Kind == client.KindHTTPStatus && werr.Body != "" {
			message = werr.Body
		}
		return &domain.AutosaveResult{Success: false, Error: message}
	}

	s.logger.Debug("Autosave succeeded",
		zap.String("session_id", req.SessionID),
		zap.Int("fields", len(update)),
	)
	return &domain.AutosaveResult{Success: true, Data: raw}
}

// SaveClassification classifies the questionnaire and stores the tier with
// the session
func (s *intakeServiceImpl) SaveClassification(ctx context.Context, sessionID string, req *dto.ClassifyRequest) (*dto.SavedClassificationResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, response.NewValidationError("session_id is required", "")
	}
	answers := req.Answers()
	if !answers.Complete() {
		return nil, response.NewValidationError("Bitte beantworte alle vier Fragen", "")
	}

	engine := s.rules.Engine()
	tier, rule := formrules.ClassifyWithReason(answers)
	s.metrics.RecordClassification(string(tier))

	result := s.Autosave(ctx, &dto.AutosaveRequest{
		SessionID:   sessionID,
		FieldUpdate: map[string]string{formrules.KeyProjektklasse: string(tier)},
		Source:      domain.SourceAutosave,
		Classification: &domain.Classification{
			Answers:      answers,
			ProjectClass: tier,
		},
		ProjectClass: tier,
	})

	return &dto.SavedClassificationResponse{
		ClassificationResponse: dto.ClassificationResponse{
			TierInfo: newTierInfo(engine, tier),
			Rule:     rule,
			Answers:  answers,
		},
		Autosave: *result,
	}, nil
}

// LoadSession returns the stored state of a session. Sessions the engine
// does not know, or cannot deliver, come back as new empty sessions.
func (s *intakeServiceImpl) LoadSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, response.NewValidationError("session_id is required", "")
	}

	// The shared load outlives the caller that started it; every caller
	// only waits as long as its own context allows.
	detached := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(sessionID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(detached, s.opts.LoadTimeout)
		defer cancel()
		return s.loadSnapshot(loadCtx, sessionID)
	})

	select {
	case <-ctx.Done():
		s.logger.Debug("Session load abandoned by caller",
			zap.String("session_id", sessionID),
			zap.Error(ctx.Err()),
		)
		return nil, response.NewAppError(response.ErrCodeUpstreamTimeout, "Session load cancelled", ctx.Err().Error())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Coalesced concurrent session load", zap.String("session_id", sessionID))
		}
		loaded := res.Val.(*loadedSnapshot)
		return sessionView(s.rules.Engine(), loaded.snapshot, loaded.cached), nil
	}
}

// invalidate drops everything that may hold the session's state from before
// a write: the cached snapshot, a load in flight and its pending cache fill.
func (s *intakeServiceImpl) invalidate(ctx context.Context, sessionID string) {
	s.versions.bump(sessionID)
	s.loads.Forget(sessionID)
	s.sessions.Invalidate(ctx, sessionID)
}

type loadedSnapshot struct {
	snapshot domain.SessionSnapshot
	cached   bool
}

func (s *intakeServiceImpl) loadSnapshot(ctx context.Context, sessionID string) (*loadedSnapshot, error) {
	version := s.versions.begin(sessionID)
	stored := false
	defer func() {
		// A write that landed while the snapshot was being stored must not
		// leave it behind.
		if !s.versions.end(sessionID, version) && stored {
			s.sessions.Invalidate(ctx, sessionID)
		}
	}()

	if snapshot, ok := s.sessions.Get(ctx, sessionID); ok {
		return &loadedSnapshot{snapshot: *snapshot, cached: true}, nil
	}

	raw, err := s.webhook.Post(ctx, domain.LoadSessionRequest{
		SessionID: sessionID,
		Source:    domain.SourceLoadSession,
		Message:   loadSessionMessage,
	})
	if err != nil {
		return s.sessionFallback(sessionID, err)
	}

	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		s.metrics.RecordSessionLoadFallback("invalid_json")
		s.logger.Warn("Undecodable session data, treating session as new",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return &loadedSnapshot{snapshot: domain.NewSessionSnapshot(sessionID,
			"n8n hat ungültige Sitzungsdaten gesendet. Session wird als neu behandelt.")}, nil
	}
	if snapshot.SessionID == "" {
		snapshot.SessionID = sessionID
	}
	if snapshot.MissingFields == nil {
		snapshot.MissingFields = []string{}
	}

	if s.versions.current(sessionID, version) {
		s.sessions.Set(ctx, &snapshot)
		stored = true
	} else {
		s.logger.Debug("Session changed during load, not caching snapshot", zap.String("session_id", sessionID))
	}
	return &loadedSnapshot{snapshot: snapshot}, nil
}

// sessionFallback maps a failed load to an empty session, or to an error
// when the engine reported a genuine failure.
func (s *intakeServiceImpl) sessionFallback(sessionID string, err error) (*loadedSnapshot, error) {
	var werr *client.WebhookError
	if !errors.As(err, &werr) {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load session", err.Error())
	}

	var reason, warning string
	switch werr.Kind {
	case client.KindUnreachable:
		reason = "unreachable"
		if werr.ConnectionRefused() {
			warning = fmt.Sprintf("n8n ist nicht erreichbar (%s). Session wird als neu behandelt.", s.webhook.URL())
		} else {
			warning = fmt.Sprintf("Netzwerkfehler: %v", werr.Err)
		}
	case client.KindHTTPStatus:
		if !werr.NotFound() && !werr.BodyContains("not found") {
			return nil, response.NewUpstreamError(
				fmt.Sprintf("n8n error: %d", werr.StatusCode),
				werr.BodyPreview(invalidJSONPreview),
			)
		}
		reason = "not_found"
	case client.KindEmptyBody:
		reason = "empty"
	case client.KindInvalidJSON:
		reason = "invalid_json"
		warning = "n8n hat ungültiges JSON zurückgegeben. Session wird als neu behandelt."
	default:
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load session", err.Error())
	}

	s.metrics.RecordSessionLoadFallback(reason)
	s.logger.Info("Treating session as new",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
	)
	return &loadedSnapshot{snapshot: domain.NewSessionSnapshot(sessionID, warning)}, nil
}

// Submit validates a complete form and forwards it to the workflow engine
func (s *intakeServiceImpl) Submit(ctx context.Context, sessionID string, req *dto.SubmitRequest) (*dto.SubmitResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, response.NewValidationError("session_id is required", "")
	}

	engine := s.rules.Engine()
	tier, answers, err := s.resolveTier(sessionID, req)
	if err != nil {
		return nil, err
	}

	values := req.Values
	if values == nil {
		values = formrules.FormValues{}
	}

	issues := engine.Validate(values, tier)
	recordIssues(s.metrics, tier, issues)

	if issues.Blocking() {
		s.metrics.RecordSubmission(metrics.SubmissionBlocked)
		return nil, response.NewAppError(response.ErrCodeBlockingIssues,
			"Bitte fülle alle Pflichtfelder aus", fmt.Sprintf("%d Pflichtfelder fehlen", len(issues.Errors()))).
			WithPayload(issues)
	}
	if issues.NeedsReview() && !req.AcknowledgeWarnings {
		s.metrics.RecordSubmission(metrics.SubmissionReview)
		return nil, response.NewAppError(response.ErrCodeReviewRequired,
			"Bitte prüfe die Hinweise vor dem Absenden", "").
			WithPayload(issues)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = s.opts.FormEmailFallback
	}

	payload := engine.SubmissionPayload(values, tier, answers)
	raw, err := s.webhook.Post(ctx, domain.SubmissionRequest{
		SessionID: sessionID,
		Email:     email,
		Message:   submissionMessage(engine.SubmissionKeys(), payload, tier),
		FormData:  payload,
		Source:    domain.SourceForm,
	})
	s.invalidate(ctx, sessionID)

	reply := s.replyFrom(raw, err, sessionID, submitReply)
	if reply.Status == domain.StatusError {
		s.metrics.RecordSubmission(metrics.SubmissionFailed)
		code := response.ErrCodeUpstream
		var werr *client.WebhookError
		if errors.As(err, &werr) && werr.Timeout() {
			code = response.ErrCodeUpstreamTimeout
		}
		return nil, response.NewAppError(code, reply.ReplyText, "").WithPayload(reply)
	}

	s.metrics.RecordSubmission(metrics.SubmissionForwarded)
	s.logger.Info("Submission forwarded",
		zap.String("session_id", sessionID),
		zap.String("tier", string(tier)),
		zap.Int("warnings", len(issues.Warnings())),
	)
	return &dto.SubmitResponse{
		ProjectClass: tier,
		Reply:        reply,
		Issues:       issues,
	}, nil
}

// resolveTier prefers classifying the submitted answers over the submitted tier.
func (s *intakeServiceImpl) resolveTier(sessionID string, req *dto.SubmitRequest) (formrules.Tier, formrules.Answers, error) {
	if req.Classification != nil && req.Classification.Complete() {
		tier := formrules.Classify(*req.Classification)
		if req.ProjectClass != "" && req.ProjectClass != string(tier) {
			s.logger.Warn("Submitted project class differs from classification",
				zap.String("session_id", sessionID),
				zap.String("submitted", req.ProjectClass),
				zap.String("classified", string(tier)),
			)
		}
		return tier, *req.Classification, nil
	}

	tier, ok := formrules.ParseTier(req.ProjectClass)
	if !ok {
		return "", formrules.Answers{}, response.NewValidationError(
			"projectClass must be one of mini, standard, strategic", req.ProjectClass)
	}
	var answers formrules.Answers
	if req.Classification != nil {
		answers = *req.Classification
	}
	return tier, answers, nil
}

// submissionMessage renders the payload as the text the engine's language
// model reads.
func submissionMessage(keys []string, payload formrules.ExternalPayload, tier formrules.Tier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Change-Anfrage (Projektklasse: %s)\n\n=== FORMULAR-DATEN ===", strings.ToUpper(string(tier)))

	seen := make(map[string]bool, len(keys))
	writeLine := func(key string) {
		value := payload[key]
		if value == "" {
			value = "(leer)"
		}
		fmt.Fprintf(&b, "\n%s: %s", key, value)
	}
	for _, key := range keys {
		seen[key] = true
		writeLine(key)
	}

	var extra []string
	for key := range payload {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		writeLine(key)
	}
	return b.String()
}

// renderChatContext prefixes a chat question with the form state it was
// asked in.
func renderChatContext(engine *formrules.Engine, fc *dto.FormContext, question string, maxLen int) string {
	var b strings.Builder
	b.WriteString("[CONTEXT]\n")
	fmt.Fprintf(&b, "Projektklasse: %s\n", fc.ProjectClass)
	if fc.CurrentSection != "" {
		fmt.Fprintf(&b, "Aktuelle Sektion: %s\n", fc.CurrentSection)
	}
	if fc.CurrentField != "" {
		fmt.Fprintf(&b, "Aktuelles Feld: %s\n", fc.CurrentField)
	}

	filled := filledFieldIDs(engine, fc.FormValues)
	if len(filled) > 0 {
		b.WriteString("\nBereits ausgefüllte Felder:\n")
		for _, id := range filled {
			fmt.Fprintf(&b, "- %s: %s\n", id, truncateRunes(strings.TrimSpace(fc.FormValues[id]), maxLen))
		}
	}

	b.WriteString("\n[USER QUESTION]\n")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

// filledFieldIDs lists the non-blank fields in catalog order, followed by
// unknown fields sorted by id.
func filledFieldIDs(engine *formrules.Engine, values formrules.FormValues) []string {
	var ids []string
	known := map[string]bool{}
	for _, id := range engine.Catalog().FieldIDs() {
		known[id] = true
		if strings.TrimSpace(values[id]) != "" {
			ids = append(ids, id)
		}
	}

	var unknown []string
	for id, value := range values {
		if !known[id] && strings.TrimSpace(value) != "" {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return append(ids, unknown...)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// decodeReply reads a chat reply. Engines configured to answer with all
// items send a one-element array; its first element is used.
func decodeReply(raw json.RawMessage) (domain.ChatReply, error) {
	var reply domain.ChatReply
	err := json.Unmarshal(firstElement(raw), &reply)
	return reply, err
}

func decodeSnapshot(raw json.RawMessage) (domain.SessionSnapshot, error) {
	var snapshot domain.SessionSnapshot
	err := json.Unmarshal(firstElement(raw), &snapshot)
	return snapshot, err
}

func firstElement(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return raw
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil || len(items) == 0 {
		return raw
	}
	return items[0]
}

// sessionView translates a stored session back into internal field ids.
func sessionView(engine *formrules.Engine, snapshot domain.SessionSnapshot, cached bool) *dto.SessionResponse {
	answers := snapshot.Answers.Map()
	values := engine.FromExternalKeys(formrules.StringValues(answers))
	delete(values, formrules.KeyProjektklasse)
	delete(values, formrules.KeyKlassifizierung)

	missing := snapshot.MissingFields
	if missing == nil {
		missing = []string{}
	}

	return &dto.SessionResponse{
		SessionID:      snapshot.SessionID,
		Status:         snapshot.Status,
		ProjectClass:   storedTier(snapshot),
		Classification: storedAnswers(snapshot.ProjectClassification),
		Values:         values,
		Answers:        answers,
		MissingFields:  missing,
		RequesterEmail: snapshot.RequesterEmail,
		Warning:        snapshot.Warning,
		Cached:         cached,
	}
}

// storedTier reads the tier from the classification record, falling back
// to the projektklasse answer.
func storedTier(snapshot domain.SessionSnapshot) formrules.Tier {
	if tier, ok := formrules.ParseTier(snapshot.ProjectClassification.String("projectClass")); ok {
		return tier
	}
	if tier, ok := formrules.ParseTier(snapshot.Answers.String(formrules.KeyProjektklasse)); ok {
		return tier
	}
	return ""
}

func storedAnswers(record domain.JSONObject) *formrules.Answers {
	answers := formrules.Answers{
		Duration:  record.String("duration"),
		Scope:     record.String("scope"),
		Relevance: record.String("relevance"),
		Risk:      record.String("risk"),
	}
	if answers == (formrules.Answers{}) {
		return nil
	}
	return &answers
}
