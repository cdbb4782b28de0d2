package file_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/chatgate/internal/gateway/store"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/file"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/storetest"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *file.Store {
	t.Helper()

	s, err := file.NewStore(filepath.Join(t.TempDir(), file.DefaultPath))
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newStore(t)
	})
}

func TestStore_DocumentLayout(t *testing.T) {
	s := newStore(t)

	err := s.Save(t.Context(), keyx.KeyRecord{
		Key:    "sk-4edbaceaf79443dc",
		Expiry: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.JSONEq(t, `{"key":"sk-4edbaceaf79443dc","expiry":"2024-03-11T10:00:00Z"}`, string(data))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	s := newStore(t)

	for range 5 {
		require.NoError(t, s.Save(t.Context(), keyx.KeyRecord{Key: "sk-4edbaceaf79443dc", Expiry: time.Now()}))
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, file.DefaultPath, entries[0].Name())
}

func TestStore_ReadsLegacyDocument(t *testing.T) {
	s := newStore(t)

	legacy := `{"key": "sk-4edbaceaf79443dc", "expiry": "2024-03-11T10:00:00.123456"}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o600))

	rec, err := s.Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, "sk-4edbaceaf79443dc", rec.Key)
	require.Equal(t, time.Date(2024, 3, 11, 10, 0, 0, 123456000, time.UTC), rec.Expiry)
}

func TestStore_CorruptDocument(t *testing.T) {
	s := newStore(t)

	for _, doc := range []string{"", "{", `{"key":"sk-4edbaceaf79443dc"}`, `[]`} {
		require.NoError(t, os.WriteFile(s.Path(), []byte(doc), 0o600))

		_, err := s.Load(t.Context())
		require.ErrorIs(t, err, keyx.ErrMalformedRecord, "document %q", doc)
	}
}

func TestStore_SaveFailsWhenDirectoryMissing(t *testing.T) {
	s, err := file.NewStore(filepath.Join(t.TempDir(), "missing", file.DefaultPath))
	require.NoError(t, err)

	require.Error(t, s.Save(t.Context(), keyx.KeyRecord{Key: "sk-4edbaceaf79443dc", Expiry: time.Now()}))
	require.Error(t, s.Ping(t.Context()))
}
