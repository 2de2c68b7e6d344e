package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRegisterCompleteAndShow(t *testing.T) {
	t.Setenv("STUDYSTREAK_BACKEND", "sqlite")
	dir := t.TempDir()

	out, err := run(t, dir, "user", "register", "ana")
	require.NoError(t, err)
	require.Contains(t, out, "registered ana")

	out, err = run(t, dir, "-u", "ana", "session", "complete", "--duration", "10m")
	require.NoError(t, err)
	require.Contains(t, out, "+10 coins")

	out, err = run(t, dir, "-u", "ana", "user", "show")
	require.NoError(t, err)
	require.Contains(t, out, "streak: 1")
	require.Contains(t, out, "coins: 10")

	out, err = run(t, dir, "-u", "ana", "history", "--days", "2")
	require.NoError(t, err)
	require.Contains(t, out, "total 10.0 min over 1 active days")
}

func TestUserFlagIsRequired(t *testing.T) {
	t.Setenv("STUDYSTREAK_USER", "")
	_, err := run(t, t.TempDir(), "user", "show")
	require.ErrorContains(t, err, "--user is required")
}

func TestRepairWithoutFrozenStreakFails(t *testing.T) {
	t.Setenv("STUDYSTREAK_BACKEND", "sqlite")
	dir := t.TempDir()
	_, err := run(t, dir, "user", "register", "ben")
	require.NoError(t, err)

	_, err = run(t, dir, "-u", "ben", "streak", "repair")
	require.ErrorContains(t, err, "nothing to repair")
}

func TestHistoryWritesJournalNote(t *testing.T) {
	t.Setenv("STUDYSTREAK_BACKEND", "sqlite")
	dir := t.TempDir()
	note := filepath.Join(dir, "journal.md")
	require.NoError(t, os.WriteFile(note, []byte("# My journal\n"), 0o644))

	_, err := run(t, dir, "user", "register", "cy")
	require.NoError(t, err)
	_, err = run(t, dir, "-u", "cy", "session", "complete", "--duration", "30m")
	require.NoError(t, err)
	_, err = run(t, dir, "-u", "cy", "history", "--days", "2", "--note", note)
	require.NoError(t, err)

	raw, err := os.ReadFile(note)
	require.NoError(t, err)
	text := string(raw)
	require.Contains(t, text, "user: cy")
	require.Contains(t, text, "# My journal")
	require.Contains(t, text, "| 30.0 | 1 |")
}
