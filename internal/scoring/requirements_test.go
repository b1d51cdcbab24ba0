package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterRequirements(t *testing.T) {
	in := []string{
		"- Python",
		"Our 24 years of industry leadership",
		"Established in 1990",
		"5+ years experience",
		"Minimum 3 years of experience in data engineering",
		"Excellent communication skills",
		"Teamwork",
		"Melbourne",
		"Parramatta",
		"Remote",
		"Experience",
		"Kubernetes",
		"python",
		"Deep understanding of distributed systems design",
	}

	got := filterRequirements(in)
	assert.Equal(t, []string{"Python", "5+ years experience", "3+ years experience", "Kubernetes"}, got)
}

func TestFilterRequirements_CapsCountAndWords(t *testing.T) {
	in := []string{"Go", "Rust", "SQL", "AWS", "Terraform", "Docker", "Kafka", "Spark"}
	got := filterRequirements(in)
	assert.Len(t, got, MaxKeyRequirements)

	for _, req := range filterRequirements([]string{"CI/CD pipelines", "machine learning model deployment"}) {
		assert.LessOrEqual(t, len(strings.Fields(req)), maxRequirementWords)
	}
}

func TestNormaliseRequirement(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"3-5 yrs experience", "3+ years experience", true},
		{"at least 2 years", "2+ years experience", true},
		{"over 5 years experience", "5+ years experience", true},
		{"we have over 30 years in business", "", false},
		{"since 1985", "", false},
		{"founded 2001", "", false},
		{"100 years of history", "", false},
		{"SQL experience", "SQL experience", true},
		{"NSW", "", false},
		{"Sydney CBD", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normaliseRequirement(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
