package domain

import (
	"fmt"
	"net/mail"
	"regexp"
)

// Submission is a candidate registration as received from the presentation
// layer, before validation. Entry 0 of Roster is the team leader.
type Submission struct {
	EventID  string
	GameID   string
	TeamName string
	Contact  Contact
	Roster   []Player

	// Tier is the declared fee tier. Empty means "infer from the email".
	Tier FeeTier
}

// homeEmailRe matches institutional student addresses, e.g.
// jane_ug_24@ece.nits.ac.in. Anything else classifies as visitor.
var homeEmailRe = regexp.MustCompile(`^[a-zA-Z0-9_]+_ug_\d{2}@[a-zA-Z0-9]+\.nits\.ac\.in$`)

// InferTier classifies a fee tier from an email address.
func InferTier(email string) FeeTier {
	if homeEmailRe.MatchString(email) {
		return TierHome
	}
	return TierVisitor
}

// ValidateSubmission checks a submission against the catalog's rules and
// returns a normalized copy ready for creation: tier resolved, and
// institutional ids cleared for visitor-tier teams (they do not apply).
//
// Failure modes, in order: *UnknownGameError, *RosterSizeError, then a
// single *ValidationError collecting every field-level violation so the
// caller can surface all of them at once.
func ValidateSubmission(catalog *Catalog, sub Submission) (Submission, error) {
	def, err := catalog.Lookup(sub.GameID)
	if err != nil {
		return Submission{}, err
	}

	if len(sub.Roster) != def.PlayerCount {
		return Submission{}, &RosterSizeError{
			GameID:   sub.GameID,
			Expected: def.PlayerCount,
			Actual:   len(sub.Roster),
		}
	}

	switch sub.Tier {
	case TierHome, TierVisitor:
	case "":
		sub.Tier = InferTier(sub.Contact.Email)
	default:
		return Submission{}, &ValidationError{Fields: []FieldError{
			{Field: "tier", Message: fmt.Sprintf("unknown fee tier %q", sub.Tier)},
		}}
	}

	var fields []FieldError
	require := func(field, value, message string) {
		if value == "" {
			fields = append(fields, FieldError{Field: field, Message: message})
		}
	}

	require("contact.email", sub.Contact.Email, "email is required")
	if sub.Contact.Email != "" {
		if _, err := mail.ParseAddress(sub.Contact.Email); err != nil {
			fields = append(fields, FieldError{Field: "contact.email", Message: "email is not a valid address"})
		}
	}
	require("team_name", sub.TeamName, "team name is required")
	require("contact.primary", sub.Contact.Primary, "primary contact is required")
	require("contact.alternate", sub.Contact.Alternate, "alternate contact is required")

	roster := make([]Player, len(sub.Roster))
	copy(roster, sub.Roster)
	for i, p := range roster {
		require(fmt.Sprintf("roster[%d].name", i), p.Name, "player name is required")
		require(fmt.Sprintf("roster[%d].handle", i), p.Handle, "in-game name is required")
		switch sub.Tier {
		case TierHome:
			require(fmt.Sprintf("roster[%d].institution_id", i), p.InstitutionID, "scholar id is required for home-tier teams")
		case TierVisitor:
			// Not applicable to visitors, even if submitted.
			roster[i].InstitutionID = ""
		}
	}

	if len(fields) > 0 {
		return Submission{}, &ValidationError{Fields: fields}
	}

	sub.Roster = roster
	return sub, nil
}
