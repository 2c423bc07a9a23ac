// Package formrules implements the classification-driven form configuration:
// it classifies a change project into a tier, derives which intake fields are
// required, optional or hidden for that tier, validates submitted values and
// translates field ids to the keys the external workflow engine expects.
//
// Everything in this package is deterministic and free of I/O. Reference data
// (catalog, rule table, name mapping) is passed in through an Engine so callers
// can swap it in tests.
package formrules

// Tier is the project class that controls the shape of the intake form.
type Tier string

// Tier constants
const (
	TierMini      Tier = "mini"
	TierStandard  Tier = "standard"
	TierStrategic Tier = "strategic"
)

// AllTiers lists the tiers in ascending order of scrutiny.
func AllTiers() []Tier {
	return []Tier{TierMini, TierStandard, TierStrategic}
}

// ParseTier converts a raw token into a Tier.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierMini, TierStandard, TierStrategic:
		return Tier(s), true
	default:
		return "", false
	}
}

// Label returns the human-readable tier name shown to requesters.
func (t Tier) Label() string {
	switch t {
	case TierMini:
		return "Mini-Projekt"
	case TierStandard:
		return "Standard-Projekt"
	case TierStrategic:
		return "Strategisches Großprojekt"
	default:
		return string(t)
	}
}

// Description returns a one-line explanation of the tier.
func (t Tier) Description() string {
	switch t {
	case TierMini:
		return "Kurze Dauer, lokaler Scope, operative Optimierung (z.B. Workshop, Team-Retro)"
	case TierStandard:
		return "Mittlere Dauer, mehrere Teams, wichtig für Bereichsziele (z.B. Tool-Einführung)"
	case TierStrategic:
		return "Lange Dauer oder hohe Reichweite, unterstützt Konzernstrategie (z.B. Transformation)"
	default:
		return ""
	}
}
