// Package models defines the server-side data model shared by the policy,
// services and repositories.
package models

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryCredential Category = "credential"
	CategorySOP        Category = "sop"
	CategoryLink       Category = "link"
	CategoryDocument   Category = "document"
)

// Classification levels, from least to most restrictive.
type Classification string

const (
	ClassificationPublic       Classification = "public"
	ClassificationInternal     Classification = "internal"
	ClassificationConfidential Classification = "confidential"
	ClassificationRestricted   Classification = "restricted"
)

// Entry is a knowledge item. Content holds plaintext once revealed by the
// service layer; at rest it is ciphertext when IsSensitive is set.
//
// Classification and IsSensitive are independent: the first gates who may
// see the entry, the second gates at-rest encryption and list masking.
type Entry struct {
	ID             string
	OwnerID        string
	Title          string
	Content        string
	Category       Category
	Classification Classification
	Tags           []string
	IsSensitive    bool
	ExpirationDate *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt *time.Time
	File           *FileRef
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates
// keeping the first occurrence. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
