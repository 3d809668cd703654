package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sajangnote/internal/models/db_models"
)

func TestCanRegister(t *testing.T) {
	tests := []struct {
		name        string
		maxPlaces   int
		activeCount int64
		want        bool
	}{
		{"free tier with no places", 1, 0, true},
		{"free tier at limit", 1, 1, false},
		{"paid tier under limit", 3, 2, true},
		{"paid tier at limit", 3, 3, false},
		{"zero max places", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRegister(tt.maxPlaces, tt.activeCount))
		})
	}
}

func TestCanChangeOrDelete(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour).Unix()
	future := now.Add(time.Hour).Unix()

	tests := []struct {
		name    string
		account db_models.Account
		want    bool
	}{
		{
			name:    "first change never used",
			account: db_models.Account{FirstPlaceChangeUsed: false},
			want:    true,
		},
		{
			name: "first change used even with a future cooldown",
			account: db_models.Account{
				FirstPlaceChangeUsed: false,
				NextPlaceChangeDate:  &future,
			},
			want: true,
		},
		{
			name:    "used but no cooldown set",
			account: db_models.Account{FirstPlaceChangeUsed: true},
			want:    true,
		},
		{
			name: "cooldown expired",
			account: db_models.Account{
				FirstPlaceChangeUsed: true,
				NextPlaceChangeDate:  &past,
			},
			want: true,
		},
		{
			name: "cooldown still active",
			account: db_models.Account{
				FirstPlaceChangeUsed: true,
				NextPlaceChangeDate:  &future,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanChangeOrDelete(&tt.account, now))
		})
	}
}

func TestCanRefresh(t *testing.T) {
	tests := []struct {
		name    string
		tier    db_models.SubscriptionTier
		remains int
		want    bool
	}{
		{"free tier never refreshes", db_models.TierFree, 5, false},
		{"basic tier with allowance", db_models.TierBasic, 1, true},
		{"basic tier exhausted", db_models.TierBasic, 0, false},
		{"premium tier with allowance", db_models.TierPremium, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &db_models.Account{SubscriptionTier: tt.tier}
			place := &db_models.Place{RemainingRefreshes: tt.remains}
			assert.Equal(t, tt.want, CanRefresh(account, place))
		})
	}
}
