package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainBinding = "ontaudit/binding/v1"
	DomainCase    = "ontaudit/case/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BindingHash computes a content hash of a binding. Variable order does not
// affect the hash; two bindings that are Equal hash identically.
func BindingHash(b Binding) (string, error) {
	canonical, err := MarshalCanonical(b)
	if err != nil {
		return "", fmt.Errorf("BindingHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBinding, canonical), nil
}

// CaseID computes the content-addressed identity of a judged case within a
// rule run. seq is the case's position in its suite.
func CaseID(runID, rule, caseName string, seq int64) (string, error) {
	obj := map[string]any{
		"run_id": runID,
		"rule":   rule,
		"case":   caseName,
		"seq":    seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CaseID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCase, canonical), nil
}

// MustBindingHash is like BindingHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBindingHash(b Binding) string {
	h, err := BindingHash(b)
	if err != nil {
		panic(err)
	}
	return h
}
