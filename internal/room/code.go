package room

import (
	"context"
	"fmt"
	"math/rand/v2"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength is the fixed length of generated room codes.
	CodeLength = 8

	maxGenerateAttempts = 10
)

// ExistenceChecker reports whether a room code is already taken.
// This keeps the generator decoupled from the storage-backed registry.
type ExistenceChecker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces short, unique, human-typeable room codes.
// The uniqueness check here is advisory only; the registry's unique
// constraint is what actually reserves the code at creation time.
type CodeGenerator struct {
	registry ExistenceChecker
}

func NewCodeGenerator(registry ExistenceChecker) *CodeGenerator {
	return &CodeGenerator{registry: registry}
}

func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := randomCode()
		taken, err := g.registry.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking room code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}
