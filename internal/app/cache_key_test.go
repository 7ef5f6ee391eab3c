package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "customer feedback for cafe", NormalizeDescription("  Customer\tFeedback \n for  CAFE "))
}

func TestCacheKeyIgnoresCosmeticDifferences(t *testing.T) {
	a := CacheKey("Customer feedback", 8, "EN")
	b := CacheKey("  customer   FEEDBACK ", 8, "en")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, CacheKey("Customer feedback", 9, "en"))
	assert.NotEqual(t, a, CacheKey("Customer feedback", 8, "de"))
}

func TestSurveyID(t *testing.T) {
	cases := map[string]string{
		"Customer Feedback!":                     "srv_customer_feedback",
		"Über café":                              "srv_ber_caf",
		"!!!":                                    "srv_survey",
		strings.Repeat("abcdefghij", 4):          "srv_abcdefghijabcdefghijabcd",
		"Employee engagement survey for Q3 2025": "srv_employee_engagement_surv",
	}
	for in, want := range cases {
		assert.Equal(t, want, SurveyID(in), in)
	}
}
