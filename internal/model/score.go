package model

// ScoringRule selects how "numbers correct" feedback is counted
type ScoringRule string

const (
	// RuleStrict bounds each digit by its multiplicity in the secret (classic Mastermind)
	RuleStrict ScoringRule = "strict"
	// RuleRelaxed counts every guess digit that appears anywhere in the secret
	RuleRelaxed ScoringRule = "relaxed"
)

// ParseScoringRule converts user input to a ScoringRule, defaulting to relaxed
func ParseScoringRule(s string) (ScoringRule, error) {
	switch ScoringRule(s) {
	case "":
		return RuleRelaxed, nil
	case RuleStrict, RuleRelaxed:
		return ScoringRule(s), nil
	default:
		return "", ErrInvalidRule
	}
}

// ScoreResult is the feedback for a single guess
type ScoreResult struct {
	NumbersCorrect   int
	PositionsCorrect int
}
