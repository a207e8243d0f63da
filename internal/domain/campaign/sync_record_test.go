package campaign

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSyncRecord_IsRetryCandidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("failed record with capacity is a candidate", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusFailed, RetryCount: 1}
		assert.True(t, r.IsRetryCandidate(5, now))
	})

	t.Run("permanent failure is excluded even below the ceiling", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusFailed, RetryCount: 1, PermanentFailure: true}
		assert.False(t, r.IsRetryCandidate(5, now))
	})

	t.Run("exhausted retry count is excluded", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusFailed, RetryCount: 5}
		assert.False(t, r.IsRetryCandidate(5, now))
	})

	t.Run("future next retry is excluded", func(t *testing.T) {
		later := now.Add(time.Minute)
		r := &SyncRecord{SyncStatus: SyncStatusFailed, NextRetryAt: &later}
		assert.False(t, r.IsRetryCandidate(5, now))
	})

	t.Run("due next retry is a candidate", func(t *testing.T) {
		earlier := now.Add(-time.Minute)
		r := &SyncRecord{SyncStatus: SyncStatusFailed, NextRetryAt: &earlier}
		assert.True(t, r.IsRetryCandidate(5, now))
	})

	t.Run("conflict is terminal for automation", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusConflict}
		assert.False(t, r.IsRetryCandidate(5, now))
	})
}

func TestSyncRecord_MarkPermanent(t *testing.T) {
	t.Run("uses the supplied reason", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusFailed, ErrorLog: "timeout"}
		r.MarkPermanent("budget rejected")

		assert.True(t, r.PermanentFailure)
		assert.Nil(t, r.NextRetryAt)
		assert.Equal(t, "PERMANENT FAILURE: budget rejected", r.ErrorLog)
	})

	t.Run("falls back to the existing error log", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusFailed, ErrorLog: "timeout"}
		r.MarkPermanent("")

		assert.Equal(t, "PERMANENT FAILURE: timeout", r.ErrorLog)
	})

	t.Run("falls back to the default message", func(t *testing.T) {
		r := &SyncRecord{SyncStatus: SyncStatusFailed}
		r.MarkPermanent("")

		assert.Equal(t, "PERMANENT FAILURE: "+DefaultPermanentFailureMessage, r.ErrorLog)
	})

	t.Run("clears a pending schedule", func(t *testing.T) {
		next := time.Now().Add(time.Hour)
		r := &SyncRecord{SyncStatus: SyncStatusFailed, NextRetryAt: &next}
		r.MarkPermanent("done")

		assert.Nil(t, r.NextRetryAt)
	})
}

func TestPlatformEntityStatus_ToLocalStatus(t *testing.T) {
	cases := []struct {
		platform PlatformEntityStatus
		local    CampaignStatus
	}{
		{PlatformEntityStatusActive, CampaignStatusActive},
		{PlatformEntityStatusPaused, CampaignStatusPaused},
		{PlatformEntityStatusCompleted, CampaignStatusCompleted},
		{PlatformEntityStatusDeleted, CampaignStatusError},
		{PlatformEntityStatusError, CampaignStatusError},
		{PlatformEntityStatus("SOMETHING_NEW"), CampaignStatusError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.local, tc.platform.ToLocalStatus(), "platform status %s", tc.platform)
	}
}

func TestCampaign_ModifiedSinceSync(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never synced counts as unmodified", func(t *testing.T) {
		c := testCampaign(uuid.New(), "x")
		assert.False(t, c.ModifiedSinceSync())
	})

	t.Run("updated after last sync is modified", func(t *testing.T) {
		c := testCampaign(uuid.New(), "x")
		synced := base.Add(-time.Hour)
		c.LastSyncedAt = &synced
		c.UpdatedAt = base
		assert.True(t, c.ModifiedSinceSync())
	})

	t.Run("untouched since last sync is unmodified", func(t *testing.T) {
		c := testCampaign(uuid.New(), "x")
		synced := base.Add(time.Hour)
		c.LastSyncedAt = &synced
		c.UpdatedAt = base
		assert.False(t, c.ModifiedSinceSync())
	})
}
