package reconcile

import (
	"testing"

	"github.com/Veraticus/subscout/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{a: "Netflix Premium", b: "Netflix", want: true},
		{a: "Netflix", b: "Netflix Premium", want: true},
		{a: "SPOTIFY", b: "spotify", want: true},
		{a: "  Hulu ", b: "hulu", want: true},
		{a: "Hulu", b: "Disney+", want: false},
		{a: "", b: "Netflix", want: false},
		{a: "Netflix", b: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesMatch(tt.a, tt.b))
			assert.Equal(t, tt.want, NamesMatch(tt.b, tt.a), "matching must be symmetric")
		})
	}
}

func TestSubstringMatcherTieBreak(t *testing.T) {
	m := NewSubstringMatcher()

	t.Run("smallest id among partial matches", func(t *testing.T) {
		records := []model.Subscription{
			{ID: "rec-b", Name: "Disney Plus Bundle"},
			{ID: "rec-a", Name: "Disney+"},
		}
		res := m.Match(model.SubscriptionCandidate{MerchantName: "Disney"}, records)
		require.True(t, res.Found)
		assert.Equal(t, "rec-a", res.Record.ID)
	})

	t.Run("exact name beats smaller id", func(t *testing.T) {
		records := []model.Subscription{
			{ID: "rec-1", Name: "Apple One Family"},
			{ID: "rec-9", Name: "apple one"},
		}
		res := m.Match(model.SubscriptionCandidate{MerchantName: "Apple One"}, records)
		require.True(t, res.Found)
		assert.Equal(t, "rec-9", res.Record.ID)
	})

	t.Run("order of records does not matter", func(t *testing.T) {
		a := []model.Subscription{{ID: "2", Name: "Max"}, {ID: "1", Name: "HBO Max"}}
		b := []model.Subscription{{ID: "1", Name: "HBO Max"}, {ID: "2", Name: "Max"}}
		c := model.SubscriptionCandidate{MerchantName: "HBO Max Ultimate"}
		assert.Equal(t, m.Match(c, a).Record.ID, m.Match(c, b).Record.ID)
	})

	t.Run("source message id wins over name", func(t *testing.T) {
		records := []model.Subscription{
			{ID: "rec-1", Name: "Netflix"},
			{ID: "rec-2", Name: "Streaming service", SourceMessageID: "msg-42"},
		}
		res := m.Match(model.SubscriptionCandidate{MerchantName: "Netflix", SourceMessageID: "msg-42"}, records)
		require.True(t, res.Found)
		assert.Equal(t, "rec-2", res.Record.ID)
	})

	t.Run("empty merchant never matches", func(t *testing.T) {
		res := m.Match(model.SubscriptionCandidate{}, []model.Subscription{{ID: "1", Name: "Netflix"}})
		assert.False(t, res.Found)
	})
}
