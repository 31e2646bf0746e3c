package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/model"
	"smart-reader-be/internal/repository/contract"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/pkg/database"
	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Reference{}))
	return db
}

func TestReferenceRepositoryRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	repo := uow.ReferenceRepository()

	ref := &entity.Reference{
		Id:      uuid.New(),
		Type:    entity.ReferenceTypeJournal,
		Title:   "Integration " + uuid.NewString(),
		Authors: []string{"Ada", "Grace"},
		Year:    "2024",
	}
	require.NoError(t, repo.Create(ctx, ref))
	t.Cleanup(func() { _ = repo.Delete(context.Background(), ref.Id) })

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindOne(ctx, specification.ByID{ID: ref.Id})
		require.NoError(t, err)
		assert.Equal(t, ref.Title, got.Title)
		assert.Equal(t, []string{"Ada", "Grace"}, got.Authors)
		assert.False(t, got.HasPdf)
		assert.Empty(t, got.Annotations)
	})

	t.Run("pdf", func(t *testing.T) {
		require.NoError(t, repo.UpdatePdf(ctx, ref.Id, "paper.pdf", []byte("%PDF-1.4"), 3))
		name, data, err := repo.FindPdf(ctx, ref.Id)
		require.NoError(t, err)
		assert.Equal(t, "paper.pdf", name)
		assert.Equal(t, []byte("%PDF-1.4"), data)

		n, err := repo.Count(ctx, specification.ByID{ID: ref.Id}, specification.WithPdf{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("annotations", func(t *testing.T) {
		annotations := []overlay.Annotation{
			overlay.NewPathAnnotation("a", 1, overlay.DefaultColor, []overlay.Point{{X: 1, Y: 1}, {X: 5, Y: 5}}, 2),
			overlay.NewTextAnnotation("b", 2, overlay.DefaultColor, overlay.Point{X: 9, Y: 9}, "note", 16),
		}
		require.NoError(t, repo.UpdateAnnotations(ctx, ref.Id, annotations))

		got, ok, err := repo.FindAnnotations(ctx, ref.Id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, annotations, got)
	})

	t.Run("missing reference", func(t *testing.T) {
		_, ok, err := repo.FindAnnotations(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)

		err = repo.UpdateAnnotations(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, contract.ErrReferenceNotFound)
	})
}

func TestUnitOfWorkRollback(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	require.NoError(t, uow.Begin(ctx))
	id := uuid.New()
	require.NoError(t, uow.ReferenceRepository().Create(ctx, &entity.Reference{
		Id:    id,
		Type:  entity.ReferenceTypeBook,
		Title: "Rolled back",
	}))
	require.NoError(t, uow.Rollback())

	got, err := uow.ReferenceRepository().FindOne(ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	assert.Nil(t, got)
}
