// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(dir string) Store {
	return map[string]func(dir string) Store{
		BackendFile: func(dir string) Store {
			s, err := Open(BackendFile, dir)
			require.NoError(t, err)
			return s
		},
		BackendSQLite: func(dir string) Store {
			s, err := Open(BackendSQLite, dir)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t.TempDir())
			defer s.Close()

			_, ok, err := s.Get("token")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.SetMany(map[string]string{
				"token":    "abc",
				"user_id":  "7",
				"username": "ana",
			}))

			v, ok, err := s.Get("token")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "abc", v)

			got, err := s.GetMany("token", "user_id", "username", "role")
			require.NoError(t, err)
			require.Equal(t, map[string]string{"token": "abc", "user_id": "7", "username": "ana"}, got)

			require.NoError(t, s.Delete("token", "user_id", "username", "missing"))
			got, err = s.GetMany("token", "user_id", "username")
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}

func TestStore_SharedBetweenInstances(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			a := open(dir)
			defer a.Close()
			b := open(dir)
			defer b.Close()

			require.NoError(t, a.SetMany(map[string]string{"token": "t1", "user_id": "1"}))
			got, err := b.GetMany("token", "user_id")
			require.NoError(t, err)
			require.Equal(t, "t1", got["token"])
			require.Equal(t, "1", got["user_id"])

			require.NoError(t, b.Delete("token", "user_id"))
			_, ok, err := a.Get("token")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStore_ClosedRejectsOperations(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t.TempDir())
			require.NoError(t, s.Close())
			_, _, err := s.Get("token")
			require.ErrorIs(t, err, ErrClosed)
			require.ErrorIs(t, s.SetMany(map[string]string{"a": "b"}), ErrClosed)
		})
	}
}

func TestFileStore_CorruptFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := s.GetMany("token")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.SetMany(map[string]string{"token": "fresh"}))
	v, _, _ := s.Get("token")
	require.Equal(t, "fresh", v)
}

func TestFileStore_Permissions(t *testing.T) {
	s, err := Open(BackendFile, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.SetMany(map[string]string{"token": "secret"}))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	require.Error(t, err)
}

func TestMatchesTarget(t *testing.T) {
	require.True(t, matchesTarget("/x/session.db", "/x/session.db"))
	require.True(t, matchesTarget("/x/session.db", "/x/session.db-wal"))
	require.False(t, matchesTarget("/x/session.json", "/x/.session.json.tmp-123"))
	require.False(t, matchesTarget("/x/session.json", "/x/config.toml"))
}

func TestFsnotifyWatcher_ReportsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewFileStore(filepath.Join(dir, "session.json"))
	require.NoError(t, err)

	w, err := NewFsnotifyWatcher(writer.Path(), 20*time.Millisecond, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	w.logger = testLogger()
	defer w.Close()

	var calls atomic.Int32
	require.NoError(t, w.Start(func() { calls.Add(1) }))

	require.NoError(t, writer.SetMany(map[string]string{"token": "abc", "user_id": "1"}))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	// Unrelated files in the same directory are ignored.
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("x"), 0600))
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, before, calls.Load())
}

func TestPollingWatcher_ReportsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	w := NewPollingWatcher(path, 10*time.Millisecond, testLogger())
	defer w.Close()

	var calls atomic.Int32
	require.NoError(t, w.Start(func() { calls.Add(1) }))
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"a"}`), 0600))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
