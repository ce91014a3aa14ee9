package model

// Outcome classifies a single elimination.
type Outcome string

const (
	O_CONTINUE  Outcome = "continue"
	O_CIVILIANS Outcome = "civilians"
	O_IMPOSTER  Outcome = "imposter"
	O_JESTER    Outcome = "jester"
)

func OutcomeFromString(s string) Outcome {
	switch s {
	case "civilians":
		return O_CIVILIANS
	case "imposter":
		return O_IMPOSTER
	case "jester":
		return O_JESTER
	}
	return O_CONTINUE
}

func (o Outcome) String() string {
	return string(o)
}

// IsTerminal reports whether the outcome ends the match.
func (o Outcome) IsTerminal() bool {
	return o != O_CONTINUE
}

func (o Outcome) Winner() Team {
	switch o {
	case O_CIVILIANS:
		return T_CIVILIAN
	case O_IMPOSTER:
		return T_IMPOSTER
	case O_JESTER:
		return T_JESTER
	}
	return T_NONE
}
