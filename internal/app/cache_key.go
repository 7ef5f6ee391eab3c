package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const maxSafeIDLen = 24

var unsafeIDChars = regexp.MustCompile(`[^a-z0-9_]`)

// NormalizeDescription trims, collapses inner whitespace and case-folds a brief
// so that cosmetically different briefs share a cache entry.
func NormalizeDescription(text string) string {
	return cases.Fold().String(strings.Join(strings.Fields(text), " "))
}

// CacheKey identifies a generation request in the survey cache.
func CacheKey(description string, numQuestions int, language string) string {
	payload := fmt.Sprintf("%s|%d|%s", NormalizeDescription(description), numQuestions, cases.Fold().String(language))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SurveyID derives a stable, URL safe survey id from the brief.
func SurveyID(description string) string {
	id := strings.ReplaceAll(strings.ToLower(description), " ", "_")
	id = unsafeIDChars.ReplaceAllString(id, "")
	if len(id) > maxSafeIDLen {
		id = id[:maxSafeIDLen]
	}
	if id == "" {
		id = "survey"
	}
	return "srv_" + id
}
