package services

import (
	"context"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/google/uuid"
)

// imagePrefix is the folder ficha images are uploaded under.
const imagePrefix = "fichas/"

// Image is an attachment submitted with a new ficha.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// FichaService implements creation and editing of inspection records.
type FichaService struct {
	fichas       FichaRepository
	blobs        BlobStore
	clock        Clock
	requireImage bool
}

func NewFichaService(fichas FichaRepository, blobs BlobStore, clock Clock, requireImage bool) *FichaService {
	return &FichaService{fichas: fichas, blobs: blobs, clock: clock, requireImage: requireImage}
}

// CreateFicha validates the form, uploads the image if there is one and only
// then writes the document. A failed upload writes nothing; an upload whose
// document write later fails is left behind as an orphan.
func (s *FichaService) CreateFicha(ctx context.Context, in models.FichaInput, img *Image) (string, error) {
	const op = "createFicha"
	f, err := in.Validate(s.clock.now().Location())
	if err != nil {
		return "", err
	}
	if img == nil && s.requireImage {
		return "", apperrors.Validation(op, "an image is required")
	}
	if img != nil && len(img.Data) == 0 {
		return "", apperrors.Validation(op, "image is empty")
	}

	logCtx := slog.With("trapNumber", f.TrapNumber)
	if img != nil {
		objectName := imagePrefix + uuid.NewString() + imageExtension(img)
		logCtx = logCtx.With("gcsObject", objectName)
		if err := s.blobs.Upload(ctx, objectName, img.Data, img.ContentType); err != nil {
			logCtx.Error("Image upload failed, ficha not created.", "error", err)
			return "", err
		}
		url, err := s.blobs.URL(ctx, objectName)
		if err != nil {
			logCtx.Error("Could not obtain image URL, ficha not created.", "error", err)
			return "", err
		}
		f.ImageURL = url
	}

	id, err := s.fichas.Create(ctx, f)
	if err != nil {
		logCtx.Error("Failed to write ficha document.", "error", err)
		return "", err
	}
	logCtx.Info("Ficha created.", "fichaId", id)
	return id, nil
}

// UpdateFicha overwrites the editable fields of an existing ficha. The trash
// state and the image reference are left as they are.
func (s *FichaService) UpdateFicha(ctx context.Context, id string, in models.FichaInput) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("updateFicha", "ficha id is required")
	}
	f, err := in.Validate(s.clock.now().Location())
	if err != nil {
		return err
	}
	if err := s.fichas.Update(ctx, id, f); err != nil {
		return err
	}
	slog.Info("Ficha updated.", "fichaId", id)
	return nil
}

func (s *FichaService) GetFicha(ctx context.Context, id string) (models.Ficha, error) {
	if strings.TrimSpace(id) == "" {
		return models.Ficha{}, apperrors.Validation("getFicha", "ficha id is required")
	}
	return s.fichas.Get(ctx, id)
}

// ListFichas returns the fichas that are not in the trash.
func (s *FichaService) ListFichas(ctx context.Context) ([]models.Ficha, error) {
	fichas, err := s.fichas.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	live := fichas[:0]
	for _, f := range fichas {
		if !f.Deleted {
			live = append(live, f)
		}
	}
	return live, nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

func imageExtension(img *Image) string {
	if ext := path.Ext(img.Filename); ext != "" {
		return strings.ToLower(ext)
	}
	if ext, ok := imageExtensions[img.ContentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(img.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}
