package service

import (
	"errors"
	"fmt"

	"change-intake-service/internal/client"
	"change-intake-service/internal/domain"
)

// sessionMissingMarker is what the workflow engine answers for chat
// messages on sessions that were never submitted through the form.
const sessionMissingMarker = "Session nicht gefunden"

const (
	replyNoAnswer = "Entschuldigung, ich konnte keine Antwort generieren."

	replySessionMissing = "💡 Um den Chat-Assistenten zu nutzen, fülle zunächst das Formular aus und sende es ab. " +
		"Der Chat-Assistent hilft dir dann beim Verfeinern deiner Antworten.\n\n" +
		"Für allgemeine Fragen kannst du auch direkt eine E-Mail an das Change-Team senden."

	replyWebhookNotFound = "⚠️ Der n8n Webhook wurde nicht gefunden (404).\n\nBitte prüfe:\n" +
		"1. Ist n8n gestartet?\n2. Ist der Workflow aktiviert?\n3. Stimmt der Webhook-Pfad?\n\n" +
		"Aktuell konfiguriert: %s"

	replyUnreachable = "⚠️ n8n ist nicht erreichbar.\n\nBitte stelle sicher, dass n8n läuft.\nKonfigurierte URL: %s"

	replyEmptyChat = "⚠️ n8n hat eine leere Antwort gesendet.\n\nDer Workflow ist möglicherweise:\n" +
		"1. Nicht bis zum 'Respond to Webhook' Node durchgelaufen\n" +
		"2. Bei einem Node fehlgeschlagen (z.B. Data Table, OpenAI)\n\n" +
		"Prüfe die Execution in n8n für Details."

	replyEmptySubmit = "⚠️ n8n hat eine leere Antwort gesendet. Prüfe die Execution in n8n."

	replyInvalidJSON = "⚠️ n8n hat ungültiges JSON zurückgegeben.\n\nAntwort war: %s..."

	replyTimeout = "⚠️ n8n hat nicht rechtzeitig geantwortet. Bitte versuche es in einem Moment erneut."
)

// invalidJSONPreview is how much of an unparsable body is quoted back.
const invalidJSONPreview = 200

// replyKind selects the wording that differs between chat and submission.
type replyKind int

const (
	chatReply replyKind = iota
	submitReply
)

// fallbackReply turns a failed webhook call into a reply the requester can
// read. Raw transport errors are reduced to a short description.
func fallbackReply(err error, sessionID, webhookURL string, kind replyKind) domain.ChatReply {
	reply := domain.ChatReply{
		Status:    domain.StatusError,
		SessionID: sessionID,
	}

	var werr *client.WebhookError
	if !errors.As(err, &werr) {
		reply.ReplyText = genericFailure(kind, err.Error())
		return reply
	}

	switch werr.Kind {
	case client.KindHTTPStatus:
		switch {
		case werr.BodyContains(sessionMissingMarker):
			reply.Status = domain.StatusInfo
			reply.ReplyText = replySessionMissing
		case werr.NotFound():
			reply.ReplyText = fmt.Sprintf(replyWebhookNotFound, webhookURL)
		default:
			reply.ReplyText = genericFailure(kind, fmt.Sprintf("n8n responded with status %d: %s",
				werr.StatusCode, werr.BodyPreview(invalidJSONPreview)))
		}
	case client.KindUnreachable:
		if werr.Timeout() {
			reply.ReplyText = replyTimeout
		} else {
			reply.ReplyText = fmt.Sprintf(replyUnreachable, webhookURL)
		}
	case client.KindEmptyBody:
		if kind == submitReply {
			reply.ReplyText = replyEmptySubmit
		} else {
			reply.ReplyText = replyEmptyChat
		}
	case client.KindInvalidJSON:
		reply.ReplyText = fmt.Sprintf(replyInvalidJSON, werr.BodyPreview(invalidJSONPreview))
	default:
		reply.ReplyText = genericFailure(kind, string(werr.Kind))
	}
	return reply
}

func genericFailure(kind replyKind, detail string) string {
	if kind == submitReply {
		return "Fehler beim Absenden: " + detail
	}
	return "Es gab einen technischen Fehler: " + detail
}
