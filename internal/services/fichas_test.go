package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fichaInput() models.FichaInput {
	return models.FichaInput{
		Region:        "13",
		Oficina:       "Santiago",
		Cuadrante:     "402",
		Subcuadrante:  "7",
		Ruta:          "R-12",
		Huso:          "19",
		TrapNumber:    "123456789",
		CondicionFija: true,
		Fecha:         "2025-04-10",
		Actividad:     "Revisión",
		Prospector:    "J. Pérez",
		Localizacion:  "Parcela 4",
	}
}

func jpeg() *Image {
	return &Image{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg", Filename: "IMG_001.JPG"}
}

func TestCreateFicha_WithImage(t *testing.T) {
	fichas := testutil.NewFakeFichas()
	blobs := testutil.NewFakeBlobs()
	svc := NewFichaService(fichas, blobs, testutil.FixedClock(today), false)

	id, err := svc.CreateFicha(context.Background(), fichaInput(), jpeg())
	require.NoError(t, err)

	got := fichas.Docs[id]
	assert.Equal(t, int64(123456789), got.TrapNumber)
	assert.False(t, got.Deleted)
	assert.Nil(t, got.DeletedAt)
	require.True(t, strings.HasPrefix(got.ImageURL, "gs://fake/fichas/"))
	assert.True(t, strings.HasSuffix(got.ImageURL, ".jpg"))
	assert.Len(t, blobs.Objects, 1)
}

func TestCreateFicha_WithoutImage(t *testing.T) {
	fichas := testutil.NewFakeFichas()
	svc := NewFichaService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today), false)

	id, err := svc.CreateFicha(context.Background(), fichaInput(), nil)
	require.NoError(t, err)
	assert.Empty(t, fichas.Docs[id].ImageURL)
}

func TestCreateFicha_ImageRequired(t *testing.T) {
	fichas := testutil.NewFakeFichas()
	svc := NewFichaService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today), true)

	_, err := svc.CreateFicha(context.Background(), fichaInput(), nil)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, fichas.Docs)
}

func TestCreateFicha_FailedUploadWritesNothing(t *testing.T) {
	fichas := testutil.NewFakeFichas()
	blobs := testutil.NewFakeBlobs()
	blobs.UploadErr = testutil.ErrInjected
	svc := NewFichaService(fichas, blobs, testutil.FixedClock(today), false)

	_, err := svc.CreateFicha(context.Background(), fichaInput(), jpeg())
	require.ErrorIs(t, err, testutil.ErrInjected)
	assert.Empty(t, fichas.Docs)
}

func TestCreateFicha_InvalidInputSkipsUpload(t *testing.T) {
	blobs := testutil.NewFakeBlobs()
	svc := NewFichaService(testutil.NewFakeFichas(), blobs, testutil.FixedClock(today), false)
	in := fichaInput()
	in.Huso = "17"

	_, err := svc.CreateFicha(context.Background(), in, jpeg())
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, blobs.UploadCall)
}

func TestUpdateFicha_KeepsTrashStateAndImage(t *testing.T) {
	at := today
	fichas := testutil.NewFakeFichas(models.Ficha{
		ID: "f1", TrapNumber: 111111111, ImageURL: "gs://fake/fichas/a.jpg", Deleted: true, DeletedAt: &at,
	})
	svc := NewFichaService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today), false)

	require.NoError(t, svc.UpdateFicha(context.Background(), "f1", fichaInput()))

	got := fichas.Docs["f1"]
	assert.Equal(t, int64(123456789), got.TrapNumber)
	assert.Equal(t, "gs://fake/fichas/a.jpg", got.ImageURL)
	assert.True(t, got.Deleted)
	require.NotNil(t, got.DeletedAt)

	err := svc.UpdateFicha(context.Background(), "missing", fichaInput())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListFichas_SkipsTrash(t *testing.T) {
	at := today
	fichas := testutil.NewFakeFichas(
		models.Ficha{ID: "live"},
		models.Ficha{ID: "gone", Deleted: true, DeletedAt: &at},
	)
	svc := NewFichaService(fichas, testutil.NewFakeBlobs(), testutil.FixedClock(today), false)

	got, err := svc.ListFichas(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "live", got[0].ID)
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imageExtension(&Image{Filename: "photo.JPG"}))
	assert.Equal(t, ".png", imageExtension(&Image{ContentType: "image/png"}))
	assert.Equal(t, ".jpg", imageExtension(&Image{ContentType: "image/jpeg"}))
	assert.Equal(t, ".jpg", imageExtension(&Image{}))
}
