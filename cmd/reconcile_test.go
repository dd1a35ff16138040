package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hotleads/internal/model"
)

// runReconcile executes the reconcile command against the CSV pair and
// returns what it printed.
func runReconcile(t *testing.T, previous, current string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	reconcileCmd.SetOut(&out)
	reconcileCmd.SetErr(&out)
	reconcileCmd.SetContext(context.Background())
	t.Cleanup(func() {
		reconcileCmd.SetOut(nil)
		reconcileCmd.SetErr(nil)
		for _, name := range []string{"previous", "current", "notion-db"} {
			_ = reconcileCmd.Flags().Set(name, "")
		}
	})

	require.NoError(t, reconcileCmd.Flags().Set("previous", previous))
	require.NoError(t, reconcileCmd.Flags().Set("current", current))
	err := reconcileCmd.RunE(reconcileCmd, nil)
	return out.String(), err
}

func writeTable(t *testing.T, path string, outcomes ...model.Outcome) {
	t.Helper()
	snap := sampleSnapshot()
	for i, o := range outcomes {
		snap.Leads[i].Outcome = o
	}
	require.NoError(t, writeCSVFile(path, snap))
}

func storedOutcomes(t *testing.T) map[string]model.Outcome {
	t.Helper()
	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	all, err := st.All(context.Background())
	require.NoError(t, err)
	return all
}

func TestReconcileCommand_AppliesEachEditOnce(t *testing.T) {
	withConfig(t, "store")
	dir := t.TempDir()
	previous := filepath.Join(dir, "leads.csv")
	edited := filepath.Join(dir, "edited.csv")
	writeTable(t, previous, model.OutcomeUncalled, model.OutcomeUncalled)
	writeTable(t, edited, model.OutcomeVoicemail, model.OutcomeUncalled)

	out, err := runReconcile(t, previous, edited)
	require.NoError(t, err)
	assert.Contains(t, out, "node/1")
	assert.Contains(t, out, "Voicemail")
	assert.Equal(t, map[string]model.Outcome{"node/1": model.OutcomeVoicemail}, storedOutcomes(t))

	advanced, err := readCSVFile(previous)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeVoicemail, advanced.Leads[0].Outcome)
	assert.Equal(t, "Fresh Bakery", advanced.Leads[0].Name)

	out, err = runReconcile(t, previous, edited)
	require.NoError(t, err)
	assert.Equal(t, "No outcome changes.\n", out)
}

func TestReconcileCommand_RevertReachesStore(t *testing.T) {
	withConfig(t, "store")
	dir := t.TempDir()
	previous := filepath.Join(dir, "leads.csv")
	edited := filepath.Join(dir, "edited.csv")
	reverted := filepath.Join(dir, "reverted.csv")
	writeTable(t, previous, model.OutcomeUncalled, model.OutcomeUncalled)
	writeTable(t, edited, model.OutcomeVoicemail, model.OutcomeUncalled)
	writeTable(t, reverted, model.OutcomeUncalled, model.OutcomeUncalled)

	_, err := runReconcile(t, previous, edited)
	require.NoError(t, err)

	out, err := runReconcile(t, previous, reverted)
	require.NoError(t, err)
	assert.Contains(t, out, "Voicemail")
	assert.Equal(t, model.OutcomeUncalled, storedOutcomes(t)["node/1"])
}

func TestReconcileCommand_FailureKeepsBaseline(t *testing.T) {
	withConfig(t, "store")
	dir := t.TempDir()
	previous := filepath.Join(dir, "leads.csv")
	other := filepath.Join(dir, "other.csv")
	writeTable(t, previous, model.OutcomeUncalled, model.OutcomeUncalled)

	snap := sampleSnapshot()
	snap.Leads = snap.Leads[:1]
	snap.Leads[0].Outcome = model.OutcomeConnected
	require.NoError(t, writeCSVFile(other, snap))

	_, err := runReconcile(t, previous, other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	kept, err := readCSVFile(previous)
	require.NoError(t, err)
	require.Len(t, kept.Leads, 2)
	assert.Equal(t, model.OutcomeUncalled, kept.Leads[0].Outcome)
	assert.Empty(t, storedOutcomes(t))
}

func TestReconcileCommand_NeedsOneSource(t *testing.T) {
	withConfig(t, "store")
	previous := filepath.Join(t.TempDir(), "leads.csv")
	writeTable(t, previous)

	_, err := runReconcile(t, previous, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of --current or --notion-db")
}
