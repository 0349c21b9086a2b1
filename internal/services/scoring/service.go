package scoring

import (
	"github.com/mcoot/digitguess/internal/model"
)

// Service scores guesses against secrets
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// Score compares a guess against a secret under the given rule.
// Both inputs must be digit strings of equal length.
func (s *Service) Score(secret model.Secret, guess string, rule model.ScoringRule) (model.ScoreResult, error) {
	if !model.IsDigits(guess) {
		return model.ScoreResult{}, model.ErrInvalidGuess
	}
	if len(guess) != secret.Len() {
		return model.ScoreResult{}, model.ErrLengthMismatch
	}

	var numbers int
	switch rule {
	case model.RuleStrict:
		numbers = strictNumbersCorrect(string(secret), guess)
	case model.RuleRelaxed:
		numbers = relaxedNumbersCorrect(string(secret), guess)
	default:
		return model.ScoreResult{}, model.ErrInvalidRule
	}

	return model.ScoreResult{
		NumbersCorrect:   numbers,
		PositionsCorrect: positionsCorrect(string(secret), guess),
	}, nil
}

// IsSolved returns true if every position of a secret of length n was matched
func (s *Service) IsSolved(result model.ScoreResult, n int) bool {
	return n > 0 && result.PositionsCorrect == n
}

// strictNumbersCorrect sums min(count in secret, count in guess) over each digit
func strictNumbersCorrect(secret, guess string) int {
	var secretCounts, guessCounts [10]int
	for i := 0; i < len(secret); i++ {
		secretCounts[secret[i]-'0']++
		guessCounts[guess[i]-'0']++
	}
	total := 0
	for d := 0; d < 10; d++ {
		total += min(secretCounts[d], guessCounts[d])
	}
	return total
}

// relaxedNumbersCorrect counts guess positions whose digit occurs anywhere in the secret
func relaxedNumbersCorrect(secret, guess string) int {
	var present [10]bool
	for i := 0; i < len(secret); i++ {
		present[secret[i]-'0'] = true
	}
	total := 0
	for i := 0; i < len(guess); i++ {
		if present[guess[i]-'0'] {
			total++
		}
	}
	return total
}

func positionsCorrect(secret, guess string) int {
	total := 0
	for i := 0; i < len(secret); i++ {
		if secret[i] == guess[i] {
			total++
		}
	}
	return total
}

// ServiceInterface defines the interface for scoring service (for mocking)
type ServiceInterface interface {
	Score(secret model.Secret, guess string, rule model.ScoringRule) (model.ScoreResult, error)
	IsSolved(result model.ScoreResult, n int) bool
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
