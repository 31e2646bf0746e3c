package implementation

import (
	"context"
	"testing"

	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements without a server and hands each UPDATE to capture.
func dryRunDB(t *testing.T, capture func(sql string)) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=reader dbname=reader sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture", func(tx *gorm.DB) {
		capture(tx.Statement.SQL.String())
	}))
	return db
}

func TestReferenceUpdateTouchesUpdatedAt(t *testing.T) {
	var sql string
	repo := NewReferenceRepository(dryRunDB(t, func(s string) { sql = s }))

	err := repo.Update(context.Background(), &entity.Reference{
		Id:    uuid.New(),
		Type:  entity.ReferenceTypeBook,
		Title: "Renamed",
	})
	// nothing executes in dry run, so no row reports as changed
	assert.ErrorIs(t, err, contract.ErrReferenceNotFound)

	require.NotEmpty(t, sql)
	assert.Contains(t, sql, `"updated_at"=`)
	assert.Contains(t, sql, `"title"=`)
	assert.NotContains(t, sql, `"pdf_data"`)
}
