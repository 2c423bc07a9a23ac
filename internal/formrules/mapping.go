package formrules

import (
	"encoding/json"
	"sort"
	"strings"
)

// Metadata keys added to every submission payload.
const (
	KeyProjektklasse   = "projektklasse"
	KeyKlassifizierung = "klassifizierung"
)

// ExternalPayload maps external engine keys to values.
type ExternalPayload map[string]string

// CombinedField describes a single form field whose value is split into two
// external keys on the way out. Only the first half survives the way back.
type CombinedField struct {
	FieldID   string `json:"field_id" yaml:"field_id"`
	FromKey   string `json:"from_key" yaml:"from_key"`
	ToKey     string `json:"to_key" yaml:"to_key"`
	Separator string `json:"separator" yaml:"separator"`
}

// Split cuts value at the first separator and trims both halves. Without a
// separator the whole value is the first half and the second is empty.
func (c CombinedField) Split(value string) (from, to string) {
	before, after, found := strings.Cut(value, c.Separator)
	if !found {
		return strings.TrimSpace(value), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// FieldNameMapping translates between internal field ids and the external
// engine's keys.
type FieldNameMapping struct {
	Keys     map[string]string `json:"keys" yaml:"keys"`
	Combined []CombinedField   `json:"combined" yaml:"combined"`
}

// DefaultMapping returns the reference internal-to-external key table.
func DefaultMapping() FieldNameMapping {
	return FieldNameMapping{
		Keys: map[string]string{
			FieldTitel:                   "beschreibung_vorhaben",
			FieldBeschreibung:            "stichpunkte",
			FieldAnsprechpartner:         "ansprechpartner_name",
			FieldZielsetzung:             "zielsetzung",
			FieldWasPassiertMisserfolg:   "was_passiert_wenn_nicht_erfolgreich",
			FieldStartdatum:              "startdatum",
			FieldZeithorizont:            "zeithorizont",
			FieldHeissePhasen:            "dauer_heisse_phasen",
			FieldStrategischeZiele:       "strategische_ziele",
			FieldBeitragKonzernstrategie: "beitrag_konzernstrategie",
			FieldBetroffeneBereiche:      "betroffene_bereiche_personen",
			FieldAnzahlMaFk:              "anzahl_mitarbeitende_fuehrungskraefte",
			FieldErwartungen:             "erwartungen_change_begleitung",
			FieldChangebedarf:            "changebedarf_pag",
			FieldVonZu:                   "ziel_change_begleitung_von",
			FieldHindernisse:             "erfolg_verhindern",
			FieldErfolgsfaktoren:         "erfolg_beitragen",
			FieldVereinbarungen:          "vereinbarungen",
			FieldSonstiges:               "sonstiges",
		},
		Combined: []CombinedField{
			{
				FieldID:   FieldVonZu,
				FromKey:   "ziel_change_begleitung_von",
				ToKey:     "ziel_change_begleitung_zu",
				Separator: "→",
			},
		},
	}
}

func (m FieldNameMapping) clone() FieldNameMapping {
	out := FieldNameMapping{
		Keys:     make(map[string]string, len(m.Keys)),
		Combined: append([]CombinedField(nil), m.Combined...),
	}
	for k, v := range m.Keys {
		out.Keys[k] = v
	}
	return out
}

func (m FieldNameMapping) combined(fieldID string) (CombinedField, bool) {
	for _, c := range m.Combined {
		if c.FieldID == fieldID {
			return c, true
		}
	}
	return CombinedField{}, false
}

// ExternalKey translates one field id without splitting combined fields.
// Unmapped ids are returned unchanged.
func (m FieldNameMapping) ExternalKey(fieldID string) string {
	if key, ok := m.Keys[fieldID]; ok && key != "" {
		return key
	}
	return fieldID
}

// externalKeys lists the keys a field produces, two for combined fields.
func (m FieldNameMapping) externalKeys(fieldID string) []string {
	if c, ok := m.combined(fieldID); ok {
		return []string{c.FromKey, c.ToKey}
	}
	return []string{m.ExternalKey(fieldID)}
}

// ToExternalKeys renames every value to its external key. Combined fields are
// split into their two external keys. When a pass-through key collides with a
// translated one, the translated value wins.
func (m FieldNameMapping) ToExternalKeys(values FormValues) ExternalPayload {
	var passThrough, mapped, combined []string
	for _, id := range sortedKeys(values) {
		_, isCombined := m.combined(id)
		key, isMapped := m.Keys[id]
		switch {
		case isCombined:
			combined = append(combined, id)
		case isMapped && key != "":
			mapped = append(mapped, id)
		default:
			passThrough = append(passThrough, id)
		}
	}

	out := make(ExternalPayload, len(values)+len(m.Combined))
	for _, id := range passThrough {
		out[id] = values[id]
	}
	for _, id := range mapped {
		out[m.ExternalKey(id)] = values[id]
	}
	for _, id := range combined {
		c, _ := m.combined(id)
		out[c.FromKey], out[c.ToKey] = c.Split(values[id])
	}
	return out
}

// FromExternalKeys maps external keys back to field ids. A combined field is
// restored from its first half only; its second key has no reverse entry and
// passes through like any unknown key. Empty values are skipped. Translated
// keys win over unknown keys that happen to equal a field id.
func (m FieldNameMapping) FromExternalKeys(payload ExternalPayload) FormValues {
	reverse := make(map[string]string, len(m.Keys))
	for _, id := range sortedKeys(m.Keys) {
		if _, taken := reverse[m.Keys[id]]; !taken {
			reverse[m.Keys[id]] = id
		}
	}
	for _, c := range m.Combined {
		reverse[c.FromKey] = c.FieldID
	}

	keys := sortedKeys(payload)
	out := make(FormValues, len(payload))
	for _, key := range keys {
		if _, ok := reverse[key]; !ok && payload[key] != "" {
			out[key] = payload[key]
		}
	}
	for _, key := range keys {
		if id, ok := reverse[key]; ok && payload[key] != "" {
			out[id] = payload[key]
		}
	}
	return out
}

func sortedKeys[M ~map[string]string](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StringValues keeps the non-empty string entries of a decoded JSON object.
// Numbers, booleans, nested objects and nulls are dropped.
func StringValues(raw map[string]any) ExternalPayload {
	out := make(ExternalPayload, len(raw))
	for key, value := range raw {
		if s, ok := value.(string); ok && s != "" {
			out[key] = s
		}
	}
	return out
}

// ExternalKey translates a field id with the engine's mapping.
func (e *Engine) ExternalKey(fieldID string) string {
	return e.mapping.ExternalKey(fieldID)
}

// ToExternalKeys translates form values with the engine's mapping.
func (e *Engine) ToExternalKeys(values FormValues) ExternalPayload {
	return e.mapping.ToExternalKeys(values)
}

// FromExternalKeys translates an external payload with the engine's mapping.
func (e *Engine) FromExternalKeys(payload ExternalPayload) FormValues {
	return e.mapping.FromExternalKeys(payload)
}

// MissingExternalKeys returns the external keys of every blank required
// field, in the order of the tier's required list. It uses the same required
// set and blank test as Validate.
func (e *Engine) MissingExternalKeys(tier Tier, values FormValues) []string {
	missing := []string{}
	for _, id := range e.table[tier].Required {
		if isBlank(values[id]) {
			missing = append(missing, e.mapping.ExternalKey(id))
		}
	}
	return missing
}

// ExternalKeysForTier returns the external keys of every visible field of a
// tier: required first, then optional, each in table order.
func (e *Engine) ExternalKeysForTier(tier Tier) []string {
	rules := e.table[tier]
	keys := make([]string, 0, len(rules.Required)+len(rules.Optional))
	for _, id := range rules.Required {
		keys = append(keys, e.mapping.ExternalKey(id))
	}
	for _, id := range rules.Optional {
		keys = append(keys, e.mapping.ExternalKey(id))
	}
	return keys
}

// SubmissionKeys returns the keys of a submission payload in catalog order,
// followed by the metadata keys.
func (e *Engine) SubmissionKeys() []string {
	var keys []string
	for _, id := range e.catalog.FieldIDs() {
		keys = append(keys, e.mapping.externalKeys(id)...)
	}
	return append(keys, KeyProjektklasse, KeyKlassifizierung)
}

// SubmissionPayload builds the complete externally keyed payload of a form
// submission. Every catalog field is present, empty when unfilled, and the
// tier and classification answers are attached as metadata.
func (e *Engine) SubmissionPayload(values FormValues, tier Tier, answers Answers) ExternalPayload {
	payload := ExternalPayload{}
	for _, id := range e.catalog.FieldIDs() {
		for _, key := range e.mapping.externalKeys(id) {
			payload[key] = ""
		}
	}
	for key, value := range e.mapping.ToExternalKeys(values) {
		payload[key] = value
	}

	payload[KeyProjektklasse] = string(tier)
	classification, err := json.Marshal(classificationRecord{Answers: answers, ProjectClass: tier})
	if err != nil {
		classification = []byte("{}")
	}
	payload[KeyKlassifizierung] = string(classification)
	return payload
}

// classificationRecord is the shape stored under klassifizierung.
type classificationRecord struct {
	Answers
	ProjectClass Tier `json:"projectClass"`
}
