package secret

import (
	"github.com/mcoot/digitguess/internal/dependencies/random"
	"github.com/mcoot/digitguess/internal/model"
)

const (
	// DefaultDigitCount is used when a caller does not choose a length
	DefaultDigitCount = 4

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Generator produces secrets and room codes from an injected random source
type Generator struct {
	random random.Random
}

// New creates a new Generator
func New(random random.Random) *Generator {
	return &Generator{random: random}
}

// Generate returns digitCount independent uniform digits. Repeats are allowed.
func (g *Generator) Generate(digitCount int) (model.Secret, error) {
	if err := ValidateDigitCount(digitCount); err != nil {
		return "", err
	}
	b := make([]byte, digitCount)
	for i := range b {
		b[i] = byte('0' + g.random.Intn(10))
	}
	return model.Secret(b), nil
}

// RoomCode draws a candidate room code. Uniqueness is checked by the caller.
func (g *Generator) RoomCode() model.RoomCode {
	return model.RoomCode(g.random.String(RoomCodeLength, RoomCodeAlphabet))
}

// ValidateDigitCount checks a requested secret length
func ValidateDigitCount(digitCount int) error {
	if digitCount < 1 || digitCount > model.MaxDigitCount {
		return model.ErrInvalidDigitCount
	}
	return nil
}

// GeneratorInterface defines the interface for secret generation (for mocking)
type GeneratorInterface interface {
	Generate(digitCount int) (model.Secret, error)
	RoomCode() model.RoomCode
}

// Ensure Generator implements GeneratorInterface
var _ GeneratorInterface = (*Generator)(nil)
