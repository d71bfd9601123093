package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"golang.org/x/sync/errgroup"
)

// emptyTrashConcurrency bounds the purges EmptyTrash runs at once.
const emptyTrashConcurrency = 4

// TrashService implements the soft-delete lifecycle of fichas:
//
//	Active  --SoftDelete--> Trashed
//	Trashed --Restore-----> Active
//	Trashed --Purge-------> Gone
//
// Purge of an active ficha is not offered by the app but is not refused here.
type TrashService struct {
	fichas FichaRepository
	blobs  BlobStore
	clock  Clock
}

func NewTrashService(fichas FichaRepository, blobs BlobStore, clock Clock) *TrashService {
	return &TrashService{fichas: fichas, blobs: blobs, clock: clock}
}

// SoftDelete moves a ficha to the trash and returns the deletedAt written.
// Trashing an already trashed ficha succeeds and moves its deletedAt forward.
func (s *TrashService) SoftDelete(ctx context.Context, id string) (time.Time, error) {
	if strings.TrimSpace(id) == "" {
		return time.Time{}, apperrors.Validation("softDelete", "ficha id is required")
	}
	at := s.clock.now()
	if err := s.fichas.SetTrashed(ctx, id, &at); err != nil {
		return time.Time{}, err
	}
	slog.Info("Ficha moved to trash.", "fichaId", id, "deletedAt", at)
	return at, nil
}

// Restore takes a ficha out of the trash.
func (s *TrashService) Restore(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("restore", "ficha id is required")
	}
	if err := s.fichas.SetTrashed(ctx, id, nil); err != nil {
		return err
	}
	slog.Info("Ficha restored from trash.", "fichaId", id)
	return nil
}

// Purge deletes a ficha permanently. The image is removed first on a best
// effort basis: an unreadable URL or a failed blob delete is logged and the
// document is deleted anyway. The result says what happened to the image.
func (s *TrashService) Purge(ctx context.Context, id string) (models.PurgeResult, error) {
	res := models.PurgeResult{ID: id}
	if strings.TrimSpace(id) == "" {
		return res, apperrors.Validation("purge", "ficha id is required")
	}
	f, err := s.fichas.Get(ctx, id)
	if err != nil {
		return res, err
	}

	logCtx := slog.With("fichaId", id)
	if f.ImageURL != "" {
		s.deleteImage(ctx, logCtx, f.ImageURL, &res)
	}

	if err := s.fichas.Delete(ctx, id); err != nil {
		logCtx.Error("Failed to delete ficha document.", "error", err)
		res.Error = err.Error()
		return res, err
	}
	logCtx.Info("Ficha purged.", "blobDeleted", res.BlobDeleted)
	return res, nil
}

func (s *TrashService) deleteImage(ctx context.Context, logCtx *slog.Logger, imageURL string, res *models.PurgeResult) {
	objectName, err := s.blobs.PathFromURL(imageURL)
	if err != nil {
		logCtx.Warn("Could not derive storage path from image URL, skipping image delete.", "imageUrl", imageURL, "error", err)
		res.BlobError = err.Error()
		return
	}
	res.BlobPath = objectName
	if err := s.blobs.Delete(ctx, objectName); err != nil {
		logCtx.Warn("Image delete failed, deleting ficha anyway.", "gcsObject", objectName, "error", err)
		res.BlobError = err.Error()
		return
	}
	res.BlobDeleted = true
}

// ListTrash returns the trashed fichas, most recently trashed first.
func (s *TrashService) ListTrash(ctx context.Context) ([]models.Ficha, error) {
	fichas, err := s.fichas.ListTrashed(ctx)
	if err != nil {
		return nil, err
	}
	trashed := make([]models.Ficha, 0, len(fichas))
	for _, f := range fichas {
		if f.Deleted {
			trashed = append(trashed, f)
		}
	}
	sort.SliceStable(trashed, func(i, j int) bool {
		return deletedAt(trashed[i]).After(deletedAt(trashed[j]))
	})
	return trashed, nil
}

// EmptyTrash purges every trashed ficha. Failures are reported per ficha and
// do not stop the others.
func (s *TrashService) EmptyTrash(ctx context.Context) ([]models.PurgeResult, error) {
	trashed, err := s.ListTrash(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.PurgeResult, len(trashed))
	var eg errgroup.Group
	eg.SetLimit(emptyTrashConcurrency)
	for i, f := range trashed {
		eg.Go(func() error {
			res, err := s.Purge(ctx, f.ID)
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = eg.Wait()

	slog.Info("Trash emptied.", "count", len(results))
	return results, nil
}

func deletedAt(f models.Ficha) time.Time {
	if f.DeletedAt == nil {
		return time.Time{}
	}
	return *f.DeletedAt
}
