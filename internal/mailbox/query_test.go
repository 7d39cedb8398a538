package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		keywords []string
		days     int
	}{
		{
			name:     "single words",
			keywords: []string{"receipt", "invoice"},
			days:     30,
			want:     "(subject:receipt OR receipt OR subject:invoice OR invoice) newer_than:30d",
		},
		{
			name:     "multi word keywords are quoted",
			keywords: []string{"renews on"},
			days:     7,
			want:     `(subject:"renews on" OR "renews on") newer_than:7d`,
		},
		{
			name:     "blank keywords skipped",
			keywords: []string{" ", "billing"},
			days:     1,
			want:     "(subject:billing OR billing) newer_than:1d",
		},
		{
			name: "no keywords",
			days: 14,
			want: "newer_than:14d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.keywords, tt.days))
		})
	}
}
