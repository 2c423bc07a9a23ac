package formrules

// FieldKind is the input control a field is rendered with.
type FieldKind string

// FieldKind constants
const (
	FieldKindText     FieldKind = "text"
	FieldKindTextarea FieldKind = "textarea"
	FieldKindDate     FieldKind = "date"
	FieldKindSelect   FieldKind = "select"
)

// Field ids of the reference catalog
const (
	FieldTitel                   = "titel"
	FieldBeschreibung            = "beschreibung"
	FieldAnsprechpartner         = "ansprechpartner"
	FieldZielsetzung             = "zielsetzung"
	FieldWasPassiertMisserfolg   = "was_passiert_misserfolg"
	FieldStartdatum              = "startdatum"
	FieldZeithorizont            = "zeithorizont"
	FieldHeissePhasen            = "heisse_phasen"
	FieldStrategischeZiele       = "strategische_ziele"
	FieldBeitragKonzernstrategie = "beitrag_konzernstrategie"
	FieldBetroffeneBereiche      = "betroffene_bereiche"
	FieldAnzahlMaFk              = "anzahl_ma_fk"
	FieldErwartungen             = "erwartungen"
	FieldChangebedarf            = "changebedarf"
	FieldVonZu                   = "von_zu"
	FieldHindernisse             = "hindernisse"
	FieldErfolgsfaktoren         = "erfolgsfaktoren"
	FieldVereinbarungen          = "vereinbarungen"
	FieldSonstiges               = "sonstiges"
)

// FieldOption is a selectable value of a select field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDefinition is a static catalog entry.
type FieldDefinition struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Kind        FieldKind     `json:"type"`
	Placeholder string        `json:"placeholder,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	MaxLength   int           `json:"max_length,omitempty"`
	HelpText    string        `json:"help_text,omitempty"`
}

// Section groups field definitions under a titled heading.
type Section struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Icon   string            `json:"icon"`
	Fields []FieldDefinition `json:"fields"`
}

// Catalog is the ordered list of sections of the intake form.
type Catalog []Section

// FieldIDs returns every field id in catalog order.
func (c Catalog) FieldIDs() []string {
	var ids []string
	for _, section := range c {
		for _, field := range section.Fields {
			ids = append(ids, field.ID)
		}
	}
	return ids
}

// Field looks up a field definition by id.
func (c Catalog) Field(id string) (FieldDefinition, bool) {
	for _, section := range c {
		for _, field := range section.Fields {
			if field.ID == id {
				return field, true
			}
		}
	}
	return FieldDefinition{}, false
}

// Label returns the field label, or the id itself for unknown fields.
func (c Catalog) Label(id string) string {
	if field, ok := c.Field(id); ok {
		return field.Label
	}
	return id
}

// clone deep-copies the catalog so callers never share backing arrays.
func (c Catalog) clone() Catalog {
	out := make(Catalog, len(c))
	for i, section := range c {
		fields := make([]FieldDefinition, len(section.Fields))
		for j, field := range section.Fields {
			if field.Options != nil {
				field.Options = append([]FieldOption(nil), field.Options...)
			}
			fields[j] = field
		}
		section.Fields = fields
		out[i] = section
	}
	return out
}

// DefaultCatalog returns the reference intake catalog: 8 sections, 19 fields.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ID:    "basisdaten",
			Title: "Projekt-Basisdaten",
			Icon:  "📋",
			Fields: []FieldDefinition{
				{
					ID:          FieldTitel,
					Label:       "Thema/Titel",
					Kind:        FieldKindText,
					Placeholder: "Kurzer prägnanter Titel des Vorhabens",
					MaxLength:   100,
					HelpText:    "Ein eindeutiger Titel für dein Projekt (max. 100 Zeichen)",
				},
				{
					ID:          FieldBeschreibung,
					Label:       "Beschreibung (Stichpunkte)",
					Kind:        FieldKindTextarea,
					Placeholder: "Was ist das Vorhaben? Beschreibe es in 2-5 Stichpunkten",
					HelpText:    "Eine kurze Übersicht über dein Vorhaben",
				},
				{
					ID:          FieldAnsprechpartner,
					Label:       "Ansprechpartner*in / PAG",
					Kind:        FieldKindText,
					Placeholder: "Name, Abteilung",
					HelpText:    "Wer ist die Hauptverantwortliche Person (Projekt-Auftraggeber*in)?",
				},
			},
		},
		{
			ID:    "ziele",
			Title: "Ziele & Erfolgskriterien",
			Icon:  "🎯",
			Fields: []FieldDefinition{
				{
					ID:          FieldZielsetzung,
					Label:       "Zielsetzung",
					Kind:        FieldKindTextarea,
					Placeholder: "Wenn das Vorhaben erfolgreich gewesen ist, dann...",
					HelpText:    "Was soll am Ende erreicht sein? Konkret und messbar formulieren.",
				},
				{
					ID:          FieldWasPassiertMisserfolg,
					Label:       "Was passiert bei Misserfolg?",
					Kind:        FieldKindTextarea,
					Placeholder: "Welche Risiken bestehen, wenn das Projekt scheitert?",
					HelpText:    "Risiko-Einschätzung: Was würde passieren, wenn das Vorhaben nicht erfolgreich wäre?",
				},
			},
		},
		{
			ID:    "zeitrahmen",
			Title: "Zeitrahmen & heiße Phasen",
			Icon:  "📅",
			Fields: []FieldDefinition{
				{
					ID:       FieldStartdatum,
					Label:    "Startdatum",
					Kind:     FieldKindDate,
					HelpText: "Geplanter Projektstart",
				},
				{
					ID:          FieldZeithorizont,
					Label:       "Zeithorizont/Dauer",
					Kind:        FieldKindText,
					Placeholder: "z.B. 3 Monate, 1 Jahr, etc.",
					HelpText:    "Wie lange wird das Projekt voraussichtlich dauern?",
				},
				{
					ID:          FieldHeissePhasen,
					Label:       `"Heiße Phasen"`,
					Kind:        FieldKindTextarea,
					Placeholder: "Zeiträume mit besonders hoher Aktivität oder Druck (z.B. Go-Live, Schulungen)",
					HelpText:    "Kritische Phasen, in denen besondere Aufmerksamkeit nötig ist",
				},
			},
		},
		{
			ID:    "strategie",
			Title: "Beitrag zur Konzernstrategie",
			Icon:  "🏢",
			Fields: []FieldDefinition{
				{
					ID:          FieldStrategischeZiele,
					Label:       "Strategische Ziele",
					Kind:        FieldKindTextarea,
					Placeholder: "Welche Ziele der Konzernstrategie werden unterstützt?",
					HelpText:    "Z.B. Digitalisierung, Nachhaltigkeit, Kundenzufriedenheit",
				},
				{
					ID:          FieldBeitragKonzernstrategie,
					Label:       "Beitrag zur Konzernstrategie",
					Kind:        FieldKindTextarea,
					Placeholder: "Wie trägt das Vorhaben zur Unternehmensstrategie bei?",
					HelpText:    "Erläutere den strategischen Wert dieses Projekts",
				},
			},
		},
		{
			ID:    "betroffene",
			Title: "Betroffene Bereiche / Personen",
			Icon:  "👥",
			Fields: []FieldDefinition{
				{
					ID:          FieldBetroffeneBereiche,
					Label:       "Betroffene Bereiche/Personen",
					Kind:        FieldKindTextarea,
					Placeholder: "Welche Teams, Abteilungen, Stakeholder sind betroffen?",
					HelpText:    "Liste alle relevanten Bereiche und Personengruppen auf",
				},
				{
					ID:          FieldAnzahlMaFk,
					Label:       "Anzahl Mitarbeitende & Führungskräfte",
					Kind:        FieldKindText,
					Placeholder: "z.B. 120 MA, 15 FK",
					HelpText:    "Wie viele Personen sind insgesamt betroffen?",
				},
			},
		},
		{
			ID:    "erwartungen",
			Title: "Erwartungen an Changebegleitung",
			Icon:  "🤝",
			Fields: []FieldDefinition{
				{
					ID:          FieldErwartungen,
					Label:       "Erwartungen",
					Kind:        FieldKindTextarea,
					Placeholder: "Die Changebegleitung ermöglicht mir als Auftraggeber*in...",
					HelpText:    "Was erhoffst du dir von der Change-Begleitung?",
				},
				{
					ID:    FieldChangebedarf,
					Label: "Changebedarf (PAG)",
					Kind:  FieldKindSelect,
					Options: []FieldOption{
						{Value: "hoch", Label: "Hoch"},
						{Value: "mittel", Label: "Mittel"},
						{Value: "niedrig", Label: "Niedrig"},
					},
					HelpText: "Wie hoch schätzt du den Changebedarf ein?",
				},
			},
		},
		{
			ID:    "risiken",
			Title: "Risiken, Hindernisse, Erfolgsfaktoren",
			Icon:  "⚠️",
			Fields: []FieldDefinition{
				{
					ID:          FieldVonZu,
					Label:       "Von (Ist-Zustand) / Zu (Soll-Zustand)",
					Kind:        FieldKindTextarea,
					Placeholder: "Ist: ... → Soll: ...",
					HelpText:    "Was soll sich konkret ändern?",
				},
				{
					ID:          FieldHindernisse,
					Label:       "Hindernisse",
					Kind:        FieldKindTextarea,
					Placeholder: "Was könnte den Erfolg verhindern/verlangsamen?",
					HelpText:    "Liste potenzielle Risiken und Hindernisse auf",
				},
				{
					ID:          FieldErfolgsfaktoren,
					Label:       "Erfolgsfaktoren",
					Kind:        FieldKindTextarea,
					Placeholder: "Was muss/kann zum Gelingen beitragen?",
					HelpText:    "Was sind die Erfolgsfaktoren für dieses Projekt?",
				},
			},
		},
		{
			ID:    "vereinbarungen",
			Title: "Vereinbarungen & Sonstiges",
			Icon:  "📝",
			Fields: []FieldDefinition{
				{
					ID:          FieldVereinbarungen,
					Label:       "Vereinbarungen",
					Kind:        FieldKindTextarea,
					Placeholder: "z.B. zugesagte Beratungs-Tage, Projektstart-Termin",
					HelpText:    "Konkrete Vereinbarungen und Zusagen",
				},
				{
					ID:          FieldSonstiges,
					Label:       "Sonstiges",
					Kind:        FieldKindTextarea,
					Placeholder: "Was könnte sonst noch wichtig sein?",
					HelpText:    "Weitere wichtige Informationen",
				},
			},
		},
	}
}
