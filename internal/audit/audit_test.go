package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditor(t *testing.T) *Auditor {
	t.Helper()
	a, err := NewAuditor(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAuditor_RecordAndRecent(t *testing.T) {
	a := newTestAuditor(t)
	a.now = func() time.Time { return time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := a.Record(ctx, Entry{Operation: "analyze", Document: "lease.pdf", Pages: 3, Clauses: 12, Risky: 2, Duration: 840})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, a.now(), first.Timestamp)

	_, err = a.Record(ctx, Entry{Operation: "translate_and_speak", Error: "speech: unsupported language"})
	require.NoError(t, err)

	entries, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "translate_and_speak", entries[0].Operation)
	assert.Equal(t, "speech: unsupported language", entries[0].Error)
	assert.Empty(t, entries[0].Document)

	got := entries[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "lease.pdf", got.Document)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 12, got.Clauses)
	assert.Equal(t, 2, got.Risky)
	assert.Equal(t, int64(840), got.Duration)
	assert.True(t, first.Timestamp.Equal(got.Timestamp))
}

func TestAuditor_RecentLimit(t *testing.T) {
	a := newTestAuditor(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		a.Log(ctx, Entry{Operation: fmt.Sprintf("op-%d", i)})
	}

	entries, err := a.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "op-4", entries[0].Operation)
	assert.Equal(t, "op-3", entries[1].Operation)
}

func TestAuditor_DuplicateID(t *testing.T) {
	a := newTestAuditor(t)
	ctx := context.Background()

	_, err := a.Record(ctx, Entry{ID: "fixed", Operation: "analyze"})
	require.NoError(t, err)
	_, err = a.Record(ctx, Entry{ID: "fixed", Operation: "analyze"})
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "root@/audit")
	assert.EqualError(t, err, "unsupported audit driver: mysql")
}

func TestDialect_Rebind(t *testing.T) {
	q := "INSERT INTO audit_log (id, operation) VALUES (?, ?)"
	assert.Equal(t, q, dialects["sqlite3"].rebind(q))
	assert.Equal(t, "INSERT INTO audit_log (id, operation) VALUES ($1, $2)", dialects["postgres"].rebind(q))
}

func TestAuditor_Nil(t *testing.T) {
	var a *Auditor
	e, err := a.Record(context.Background(), Entry{Operation: "analyze"})
	assert.NoError(t, err)
	assert.Equal(t, "analyze", e.Operation)

	entries, err := a.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, entries)
	assert.NoError(t, a.Close())
}
