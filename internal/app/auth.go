package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrLocked means a write arrived without a valid unlock token.
	ErrLocked = errors.New("editor locked")
	// ErrBadPassphrase means an unlock attempt failed.
	ErrBadPassphrase = errors.New("wrong passphrase")
)

// EditorGate optionally protects mutating endpoints behind a shared
// passphrase. With no passphrase configured the gate is open and every
// token check passes.
type EditorGate struct {
	hash []byte

	mu     sync.Mutex
	tokens map[string]bool
}

// NewEditorGate hashes the configured passphrase. An empty passphrase
// disables the gate.
func NewEditorGate(passphrase string) (*EditorGate, error) {
	gate := &EditorGate{tokens: make(map[string]bool)}
	if passphrase == "" {
		return gate, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash editor passphrase: %w", err)
	}
	gate.hash = hash
	return gate, nil
}

// Required reports whether unlocking is needed at all.
func (g *EditorGate) Required() bool {
	return len(g.hash) > 0
}

// Unlock trades the passphrase for a bearer token.
func (g *EditorGate) Unlock(passphrase string) (string, error) {
	if !g.Required() {
		return "", nil
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(passphrase)); err != nil {
		return "", ErrBadPassphrase
	}

	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)

	g.mu.Lock()
	g.tokens[token] = true
	g.mu.Unlock()
	return token, nil
}

// Check validates a previously issued token.
func (g *EditorGate) Check(token string) error {
	if !g.Required() {
		return nil
	}
	g.mu.Lock()
	ok := g.tokens[token]
	g.mu.Unlock()
	if !ok {
		return ErrLocked
	}
	return nil
}

// Lock revokes one token.
func (g *EditorGate) Lock(token string) {
	g.mu.Lock()
	delete(g.tokens, token)
	g.mu.Unlock()
}
