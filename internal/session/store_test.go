package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pakar/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "pakar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord() *Record {
	return &Record{
		Mode:     ModeForward,
		Symptoms: []engine.Fact{"touchscreen_tidak_respons", "layar_tampil_normal"},
		Results: []ResultEntry{
			{Fact: "kerusakan_touchscreen_digitizer", Confidence: 0.88, Proved: true},
		},
		Events: []engine.Event{
			{Type: engine.EventRuleFired, RuleID: "r06", Conclusion: "kerusakan_touchscreen_digitizer", CF: 0.88},
		},
		Stats: map[string]string{"iterations": "2"},
	}
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRecord()
	require.NoError(t, store.Save(rec))

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.StartedAt.IsZero())
}

func TestSaveGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRecord()
	require.NoError(t, store.Save(rec))

	got, err := store.Get(rec.ID)
	require.NoError(t, err)

	assert.Equal(t, ModeForward, got.Mode)
	assert.Equal(t, rec.Symptoms, got.Symptoms)
	require.Len(t, got.Results, 1)
	assert.Equal(t, engine.Fact("kerusakan_touchscreen_digitizer"), got.Results[0].Fact)
	assert.Equal(t, 0.88, got.Results[0].Confidence)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "r06", got.Events[0].RuleID)
	assert.Equal(t, "2", got.Stats["iterations"])
}

func TestGetUnknownSession(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get("nope")
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	older := sampleRecord()
	older.StartedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(older))

	newer := sampleRecord()
	newer.Mode = ModeBackward
	require.NoError(t, store.Save(newer))

	records, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)

	// List omits the trace.
	assert.Empty(t, records[0].Events)

	limited, err := store.List(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCountAndDelete(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRecord()
	require.NoError(t, store.Save(rec))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(rec.ID))

	n, err = store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Error(t, store.Delete(rec.ID))
}

func TestFromForward(t *testing.T) {
	rules, err := engine.NewRuleSet([]engine.Rule{
		{ID: "r06", If: []engine.Fact{"touchscreen_tidak_respons", "layar_tampil_normal"},
			Then: "kerusakan_touchscreen_digitizer", CF: 0.88, Final: true},
	})
	require.NoError(t, err)

	fc := engine.NewForward(rules, nil)
	res := fc.Run([]engine.Fact{"touchscreen_tidak_respons", "layar_tampil_normal"}, 50)

	rec := FromForward(res)
	assert.Equal(t, ModeForward, rec.Mode)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, engine.Fact("kerusakan_touchscreen_digitizer"), rec.Results[0].Fact)
	assert.True(t, rec.Results[0].Proved)
	assert.Equal(t, "1", rec.Stats["rules_fired"])
	assert.NotEmpty(t, rec.Events)
}

func TestFromBackward(t *testing.T) {
	rules, err := engine.NewRuleSet([]engine.Rule{
		{ID: "r06", If: []engine.Fact{"touchscreen_tidak_respons", "layar_tampil_normal"},
			Then: "kerusakan_touchscreen_digitizer", CF: 0.88, Final: true},
	})
	require.NoError(t, err)

	// The digitizer antecedents are confirmed by the user; the LCD
	// goal has no concluding rule and is denied.
	oracle := func(q engine.Fact) bool { return q != "kerusakan_lcd" }
	prover := engine.NewProver(rules, oracle, 10, nil)
	res := prover.Run([]engine.Fact{"kerusakan_touchscreen_digitizer", "kerusakan_lcd"})

	rec := FromBackward(res, prover.Stats())
	assert.Equal(t, ModeBackward, rec.Mode)

	var proved, failed int
	for _, r := range rec.Results {
		if r.Proved {
			proved++
		} else {
			failed++
		}
	}
	assert.Equal(t, 1, proved)
	assert.Equal(t, 1, failed)
	// Subgoals proved along the way count toward the attempt total:
	// two antecedents, the digitizer goal, and the failed LCD goal.
	assert.Equal(t, "4", rec.Stats["goals_attempted"])
}
