package dna

import (
	"encoding/json"
	"fmt"

	"github.com/codeforge-ai/codeforge/internal/router"
)

// DecodeError means a stored DNA document could not be read back.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("failed to decompress project DNA: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Kind reports the error kind used in API error bodies.
func (e *DecodeError) Kind() string { return router.KindDecode }

// Compress serializes d as minified JSON.
func Compress(d ProjectDNA) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode project DNA: %w", err)
	}
	return string(b), nil
}

// Decompress parses a document produced by Compress.
func Decompress(s string) (ProjectDNA, error) {
	var d ProjectDNA
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return ProjectDNA{}, &DecodeError{Err: err}
	}
	return d, nil
}
