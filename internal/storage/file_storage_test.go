package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

const account = "Trader@Example.com"

func newStore(t *testing.T) *FileStorage {
	t.Helper()
	store, err := NewFileStorage(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	return store
}

func sampleState(t *testing.T) trading.TradingState {
	t.Helper()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	m := trading.NewTradeManager(trading.WithClock(func() time.Time { return now }))

	s := trading.NewTradingState(100000, trading.RiskSettings{RiskPerTrade: 1, DailyLossLimit: 5, ConsecutiveLossesLimit: 3}, now, time.UTC)
	s = m.OpenTrade(s, trading.Signal{ID: "sig-1", Instrument: "NAS100", Direction: trading.DirectionLong, Entry: 18000.5})
	win := 500.0
	s, err := m.CloseTrade(s, s.OpenPositions[0].ID, trading.OutcomeWin, &win)
	require.NoError(t, err)
	return m.OpenTrade(s, trading.Signal{ID: "sig-2", Instrument: "US30"})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "trading_state_trader@example.com", Key(account))
}

func TestFileStorage_SaveLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	s := sampleState(t)

	require.NoError(t, store.Save(account, &s))
	assert.Equal(t, int64(1), s.Version)
	assert.True(t, store.Exists(account))

	loaded, err := store.Load(account)
	require.NoError(t, err)
	assert.Equal(t, s, *loaded)
}

func TestFileStorage_LoadMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Load("nobody")
	require.Error(t, err)
	assert.True(t, ledgererrors.IsNotFound(err))
	assert.False(t, store.Exists("nobody"))
}

func TestFileStorage_RejectsStaleWrite(t *testing.T) {
	store := newStore(t)
	s := sampleState(t)
	require.NoError(t, store.Save(account, &s))

	first := s
	second := s

	require.NoError(t, store.Save(account, &first))
	assert.Equal(t, int64(2), first.Version)

	err := store.Save(account, &second)
	require.Error(t, err)
	assert.True(t, ledgererrors.IsConflict(err))
	assert.Equal(t, int64(1), second.Version, "rejected state keeps its version")
}

func TestFileStorage_RejectsInvalidState(t *testing.T) {
	store := newStore(t)
	s := sampleState(t)
	s.CurrentEquity += 10

	err := store.Save(account, &s)
	require.Error(t, err)
	assert.True(t, ledgererrors.IsValidation(err))
	assert.False(t, store.Exists(account))
}

func TestFileStorage_CorruptDocument(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(account), []byte("{not json"), 0644))

	_, err := store.Load(account)
	require.Error(t, err)
	assert.Equal(t, ledgererrors.ErrorCategoryStorage, ledgererrors.CategoryOf(err))

	fresh := trading.NewTradingState(50000, trading.RiskSettings{DailyLossLimit: 5, ConsecutiveLossesLimit: 3}, time.Now(), time.UTC)
	require.NoError(t, store.Save(account, &fresh))

	loaded, err := store.Load(account)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, loaded.InitialEquity)
}

func TestFileStorage_BackupAndRestore(t *testing.T) {
	store := newStore(t)
	s := sampleState(t)
	require.NoError(t, store.Save(account, &s))

	backupPath, err := store.Backup(account)
	require.NoError(t, err)
	assert.FileExists(t, backupPath)

	loss := -300.0
	later, err := trading.CloseTrade(s, s.OpenPositions[0].ID, trading.OutcomeLoss, &loss)
	require.NoError(t, err)
	require.NoError(t, store.Save(account, &later))

	restored, err := store.Restore(account, backupPath)
	require.NoError(t, err)
	assert.Equal(t, 100500.0, restored.CurrentEquity)
	assert.Equal(t, int64(3), restored.Version)

	loaded, err := store.Load(account)
	require.NoError(t, err)
	assert.Len(t, loaded.OpenPositions, 1)

	// the holder of the pre-restore state must reload
	err = store.Save(account, &later)
	assert.True(t, ledgererrors.IsConflict(err))
}

func TestFileStorage_BackupMissing(t *testing.T) {
	store := newStore(t)
	_, err := store.Backup(account)
	assert.True(t, ledgererrors.IsNotFound(err))
}

func TestFileStorage_List(t *testing.T) {
	store := newStore(t)
	for _, acct := range []string{"b@example.com", "a@example.com"} {
		s := sampleState(t)
		require.NoError(t, store.Save(acct, &s))
	}
	_, err := store.Backup("a@example.com")
	require.NoError(t, err)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, accounts)
}

func TestFileStorage_RestoreKeepsDocumentWhenWriteFails(t *testing.T) {
	store := newStore(t)
	s := sampleState(t)
	require.NoError(t, store.Save(account, &s))
	backupPath, err := store.Backup(account)
	require.NoError(t, err)

	// a directory in the way of the temporary file makes the write fail
	require.NoError(t, os.Mkdir(store.Path(account)+".tmp", 0755))

	_, err = store.Restore(account, backupPath)
	require.Error(t, err)
	assert.True(t, ledgererrors.IsCategory(err, ledgererrors.ErrorCategoryStorage))

	loaded, err := store.Load(account)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Equal(t, 100500.0, loaded.CurrentEquity)

	require.NoError(t, os.Remove(store.Path(account)+".tmp"))
	restored, err := store.Restore(account, backupPath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), restored.Version)
	assert.NoFileExists(t, store.Path(account)+".tmp")
}

func TestFileStorage_SanitizedKeysDoNotCollide(t *testing.T) {
	store := newStore(t)

	first := sampleState(t)
	require.NoError(t, store.Save("desk/one", &first))

	second := trading.NewTradingState(25000, first.RiskSettings, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, store.Save("desk one", &second))

	assert.NotEqual(t, store.Path("desk/one"), store.Path("desk one"))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	equities := map[float64]bool{}
	for _, name := range accounts {
		loaded, err := store.Load(name)
		require.NoError(t, err)
		equities[loaded.InitialEquity] = true
	}
	assert.Equal(t, map[float64]bool{100000: true, 25000: true}, equities)
}
