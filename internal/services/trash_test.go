package services

import (
	"context"
	"testing"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	fichas := testutil.NewFakeFichas(models.Ficha{ID: "f1", Oficina: "Santiago", TrapNumber: 123456789})
	before := fichas.Docs["f1"]
	svc := NewTrashService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today))
	ctx := context.Background()

	at, err := svc.SoftDelete(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, at.Equal(today))

	trashed := fichas.Docs["f1"]
	assert.True(t, trashed.Deleted)
	require.NotNil(t, trashed.DeletedAt)
	assert.True(t, trashed.DeletedAt.Equal(today))

	require.NoError(t, svc.Restore(ctx, "f1"))
	assert.Equal(t, before, fichas.Docs["f1"])
}

func TestSoftDelete_Missing(t *testing.T) {
	svc := NewTrashService(testutil.NewFakeFichas(), testutil.NewFakeBlobs(), testutil.FixedClock(today))

	_, err := svc.SoftDelete(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.SoftDelete(context.Background(), " ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestPurge_DeletesImageAndDocument(t *testing.T) {
	blobs := testutil.NewFakeBlobs()
	blobs.Objects["fichas/a.jpg"] = []byte("x")
	fichas := testutil.NewFakeFichas(models.Ficha{ID: "f1", ImageURL: "gs://fake/fichas/a.jpg"})
	svc := NewTrashService(fichas, blobs, testutil.FixedClock(today))

	res, err := svc.Purge(context.Background(), "f1")
	require.NoError(t, err)
	assert.True(t, res.BlobDeleted)
	assert.Equal(t, "fichas/a.jpg", res.BlobPath)
	assert.Empty(t, fichas.Docs)
	assert.Empty(t, blobs.Objects)
}

func TestPurge_UnparsableURLStillDeletesDocument(t *testing.T) {
	blobs := testutil.NewFakeBlobs()
	fichas := testutil.NewFakeFichas(models.Ficha{ID: "f1", ImageURL: "not a url"})
	svc := NewTrashService(fichas, blobs, testutil.FixedClock(today))

	res, err := svc.Purge(context.Background(), "f1")
	require.NoError(t, err)
	assert.False(t, res.BlobDeleted)
	assert.NotEmpty(t, res.BlobError)
	assert.Empty(t, fichas.Docs)
	assert.Empty(t, blobs.Deleted)
}

func TestPurge_BlobDeleteFailureStillDeletesDocument(t *testing.T) {
	blobs := testutil.NewFakeBlobs()
	blobs.DeleteErr = testutil.ErrInjected
	fichas := testutil.NewFakeFichas(models.Ficha{ID: "f1", ImageURL: "gs://fake/fichas/a.jpg"})
	svc := NewTrashService(fichas, blobs, testutil.FixedClock(today))

	res, err := svc.Purge(context.Background(), "f1")
	require.NoError(t, err)
	assert.False(t, res.BlobDeleted)
	assert.Equal(t, "fichas/a.jpg", res.BlobPath)
	assert.Empty(t, fichas.Docs)
}

func TestPurge_MissingObjectCountsAsDeleted(t *testing.T) {
	fichas := testutil.NewFakeFichas(models.Ficha{ID: "f1", ImageURL: "gs://fake/fichas/gone.jpg"})
	svc := NewTrashService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today))

	res, err := svc.Purge(context.Background(), "f1")
	require.NoError(t, err)
	assert.True(t, res.BlobDeleted)
}

func TestPurge_DocumentDeleteFails(t *testing.T) {
	fichas := testutil.NewFakeFichas(models.Ficha{ID: "f1"})
	fichas.FailOn["delete"] = testutil.ErrInjected
	svc := NewTrashService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today))

	res, err := svc.Purge(context.Background(), "f1")
	require.ErrorIs(t, err, testutil.ErrInjected)
	assert.NotEmpty(t, res.Error)
	assert.Contains(t, fichas.Docs, "f1")
}

func TestListTrash_MostRecentFirst(t *testing.T) {
	t1 := today.Add(-3 * time.Hour)
	t2 := today.Add(-2 * time.Hour)
	t3 := today.Add(-1 * time.Hour)
	fichas := testutil.NewFakeFichas(
		models.Ficha{ID: "a", Deleted: true, DeletedAt: &t2},
		models.Ficha{ID: "b", Deleted: true, DeletedAt: &t1},
		models.Ficha{ID: "c", Deleted: true, DeletedAt: &t3},
		models.Ficha{ID: "live"},
	)
	svc := NewTrashService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today))

	got, err := svc.ListTrash(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestEmptyTrash(t *testing.T) {
	t1 := today.Add(-time.Hour)
	blobs := testutil.NewFakeBlobs()
	blobs.Objects["fichas/a.jpg"] = []byte("x")
	fichas := testutil.NewFakeFichas(
		models.Ficha{ID: "a", Deleted: true, DeletedAt: &t1, ImageURL: "gs://fake/fichas/a.jpg"},
		models.Ficha{ID: "b", Deleted: true, DeletedAt: &t1, ImageURL: "broken"},
		models.Ficha{ID: "live"},
	)
	svc := NewTrashService(fichas, blobs, testutil.FixedClock(today))

	results, err := svc.EmptyTrash(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Empty(t, r.Error, r.ID)
	}
	assert.Len(t, fichas.Docs, 1)
	assert.Contains(t, fichas.Docs, "live")
	assert.Empty(t, blobs.Objects)
}
