package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDocument = "datadance/document/v1"
	DomainRun      = "datadance/run/v1"
	DomainResult   = "datadance/result/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content-addressed identity of a document.
// The document name is excluded: two files with the same settings and rules
// hash identically.
func DocumentHash(doc Document) (string, error) {
	body := doc.Value()
	delete(body, "name")

	canonical, err := MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// RunID computes the content-addressed ID of one journaled transformation.
// The ID is stable across replays given the same inputs.
func RunID(batchToken, documentHash string, input Object, seq int64) (string, error) {
	obj := Object{
		"batch_token":   String(batchToken),
		"document_hash": String(documentHash),
		"input":         input,
		"seq":           Int(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// ResultHash fingerprints a transformation result (success or error
// object). Replays compare result hashes to detect non-determinism.
func ResultHash(result Object) (string, error) {
	canonical, err := MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDocumentHash(doc Document) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}

// MustResultHash is like ResultHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultHash(result Object) string {
	h, err := ResultHash(result)
	if err != nil {
		panic(err)
	}
	return h
}
