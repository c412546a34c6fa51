package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/adwatch/internal/apperr"
)

func TestSessionOpenSeedsWalletFromProfile(t *testing.T) {
	profiles := &fakeProfiles{balances: map[string]string{testUserID: "20"}}
	svc := NewSessionService(profiles, time.Minute, LogRenderer)
	defer svc.CloseAll()

	sess, err := svc.Open(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, sess.Wallet.Balance().Equal(dec("20")))

	again, err := svc.Open(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Same(t, sess, again)

	got, err := svc.Get(testUserID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, svc.Count())
}

func TestSessionGetUnknown(t *testing.T) {
	svc := NewSessionService(&fakeProfiles{balances: map[string]string{}}, time.Minute, nil)

	_, err := svc.Get(testUserID)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	assert.False(t, svc.Close(testUserID))
}

func TestSessionOpenProfileError(t *testing.T) {
	svc := NewSessionService(&fakeProfiles{err: assert.AnError}, time.Minute, nil)

	_, err := svc.Open(context.Background(), testUserID)
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, svc.Count())
}

func TestSessionConcurrentOpenSharesOneSession(t *testing.T) {
	profiles := &fakeProfiles{balances: map[string]string{testUserID: "1"}}
	svc := NewSessionService(profiles, time.Minute, nil)
	defer svc.CloseAll()

	var wg sync.WaitGroup
	got := make([]*Session, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := svc.Open(context.Background(), testUserID)
			assert.NoError(t, err)
			got[i] = sess
		}(i)
	}
	wg.Wait()

	for _, sess := range got {
		assert.Same(t, got[0], sess)
	}
}

func TestSessionResultAfterCloseDoesNotLeakIntoReopen(t *testing.T) {
	profiles := &fakeProfiles{balances: map[string]string{testUserID: "10"}}
	svc := NewSessionService(profiles, time.Minute, nil)
	defer svc.CloseAll()

	old, err := svc.Open(context.Background(), testUserID)
	require.NoError(t, err)
	require.True(t, svc.Close(testUserID))

	// A claim issued before the viewer left resolves afterwards.
	ledger := &fakeLedger{claimReply: cashReply("5")}
	_, err = NewLedgerService(ledger, time.Second).Claim(context.Background(), old, testCampaignID)
	require.NoError(t, err)
	assert.Equal(t, PresentationIdle, old.Presenter.Current().State)

	// The ledger committed it, so the profile now reflects it.
	profiles.set(testUserID, "15")

	fresh, err := svc.Open(context.Background(), testUserID)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.True(t, fresh.Wallet.Balance().Equal(dec("15")), "balance %s", fresh.Wallet.Balance())
}
