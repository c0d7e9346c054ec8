package history

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDB struct {
	execSQL   string
	execArgs  []any
	execErr   error
	queryArgs []any
	queryErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	f.queryArgs = args
	return nil, f.queryErr
}

func TestRecordFillsDefaults(t *testing.T) {
	db := &fakeDB{}
	r := New(db, zap.NewNop())

	r.Record(context.Background(), Entry{
		Goals:           []string{"sleep"},
		DepthLevel:      "general",
		Matched:         true,
		Recommendations: []string{"Magnesium"},
		IPAddress:       "10.0.0.1",
	})

	require.Len(t, db.execArgs, 9)
	assert.Contains(t, db.execSQL, "INSERT INTO recommendation_requests")
	id, ok := db.execArgs[0].(uuid.UUID)
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, []string{"sleep"}, db.execArgs[1])
	assert.Equal(t, "general", db.execArgs[2])
	assert.Equal(t, true, db.execArgs[4])
	assert.Equal(t, "10.0.0.1", db.execArgs[6])
}

func TestRecordLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	db := &fakeDB{execErr: errors.New("relation does not exist")}
	r := New(db, zap.New(core))

	r.Record(context.Background(), Entry{Goals: []string{"focus"}, DepthLevel: "precise"})

	entries := logs.FilterMessage("failed to persist recommendation history").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "relation does not exist", entries[0].ContextMap()["error"])
}

func TestListRecentDefaultsLimit(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("down")}
	r := New(db, zap.NewNop())

	_, err := r.ListRecent(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, []any{defaultListLimit}, db.queryArgs)

	_, err = r.ListRecent(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, []any{5}, db.queryArgs)
}
