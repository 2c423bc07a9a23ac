package metrics

// RecordClassification counts a questionnaire classification
func (m *Metrics) RecordClassification(tier string) {
	m.safeExecute("RecordClassification", func() {
		m.ClassificationsTotal.WithLabelValues(tier).Inc()
	})
}

// RecordValidationIssues counts validation findings of one run by severity
func (m *Metrics) RecordValidationIssues(tier string, bySeverity map[string]int) {
	m.safeExecute("RecordValidationIssues", func() {
		for severity, n := range bySeverity {
			if n > 0 {
				m.ValidationIssuesTotal.WithLabelValues(tier, severity).Add(float64(n))
			}
		}
	})
}

// Submission outcomes
const (
	SubmissionForwarded = "forwarded"
	SubmissionBlocked   = "blocked"
	SubmissionReview    = "review_required"
	SubmissionFailed    = "failed"
)

// RecordSubmission counts a submission attempt by outcome
func (m *Metrics) RecordSubmission(outcome string) {
	m.safeExecute("RecordSubmission", func() {
		m.SubmissionsTotal.WithLabelValues(outcome).Inc()
	})
}

// RecordAutosave counts a field autosave
func (m *Metrics) RecordAutosave(success bool) {
	m.safeExecute("RecordAutosave", func() {
		result := "success"
		if !success {
			result = "failure"
		}
		m.AutosavesTotal.WithLabelValues(result).Inc()
	})
}

// RecordChatReply counts a chat reply by the status it carries
func (m *Metrics) RecordChatReply(status string) {
	m.safeExecute("RecordChatReply", func() {
		if status == "" {
			status = "unknown"
		}
		m.ChatRepliesTotal.WithLabelValues(status).Inc()
	})
}

// RecordSessionLoadFallback counts a session load answered with an empty session
func (m *Metrics) RecordSessionLoadFallback(reason string) {
	m.safeExecute("RecordSessionLoadFallback", func() {
		m.SessionLoadFallbacks.WithLabelValues(reason).Inc()
	})
}
