package domain

import "time"

// Gender is a participant's recorded gender, used for demographic
// threshold lookups. GenderUnspecified selects the fallback bands.
type Gender string

// Recognized gender values.
const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// AgeGroup is the demographic age band used to key scoring thresholds.
type AgeGroup string

// Age bands for threshold lookups.
const (
	AgeUnder30 AgeGroup = "under_30"
	Age30to39  AgeGroup = "30_39"
	Age40to49  AgeGroup = "40_49"
	Age50to59  AgeGroup = "50_59"
	Age60Plus  AgeGroup = "60_plus"
)

// AgeGroupForAge classifies an age in whole years into its band.
func AgeGroupForAge(age int) AgeGroup {
	switch {
	case age < 30:
		return AgeUnder30
	case age < 40:
		return Age30to39
	case age < 50:
		return Age40to49
	case age < 60:
		return Age50to59
	default:
		return Age60Plus
	}
}

// Participant is a registered event participant. Identity fields are
// immutable after registration and referenced by all station results.
type Participant struct {
	// ID uniquely identifies the participant (UUID).
	ID string `json:"id"`

	// Code is the short public identifier printed on the participant's
	// badge and used by operators at submission time.
	Code string `json:"participant_code"`

	// Name is the participant's display name.
	Name string `json:"name"`

	// Gender selects the demographic threshold bands.
	Gender Gender `json:"gender"`

	// BirthDate determines the participant's age group at scoring time.
	BirthDate time.Time `json:"birth_date"`

	// Organisation is the team or company the participant belongs to.
	// May be empty for unaffiliated participants.
	Organisation string `json:"organisation"`
}

// Demographics is the subset of participant identity the scorer needs.
// It is resolved once per submission so the pure scorer never touches
// the participant record itself.
type Demographics struct {
	Gender   Gender
	AgeGroup AgeGroup
}

// AgeAt returns the participant's age in whole years at the given time.
func (p Participant) AgeAt(t time.Time) int {
	age := t.Year() - p.BirthDate.Year()
	if t.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// DemographicsAt resolves the demographic key for threshold lookups
// at the given time.
func (p Participant) DemographicsAt(t time.Time) Demographics {
	g := p.Gender
	if g != GenderMale && g != GenderFemale {
		g = GenderUnspecified
	}
	return Demographics{Gender: g, AgeGroup: AgeGroupForAge(p.AgeAt(t))}
}
