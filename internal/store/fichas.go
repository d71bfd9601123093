package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"google.golang.org/api/iterator"
)

// FichaStore reads and writes the fichas collection.
//
// "deleted" may be absent on documents written by older clients, and
// Firestore inequality filters skip documents that lack the field, so
// "not deleted" is filtered in memory instead of with a != query.
type FichaStore struct {
	client     *firestore.Client
	collection string
}

func NewFichaStore(client *firestore.Client, collection string) *FichaStore {
	return &FichaStore{client: client, collection: collection}
}

func (s *FichaStore) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *FichaStore) Create(ctx context.Context, f models.Ficha) (string, error) {
	f.Deleted = false
	f.DeletedAt = nil
	docRef, _, err := s.col().Add(ctx, f)
	if err != nil {
		return "", apperrors.Transient("createFicha", err, "failed to create ficha document")
	}
	return docRef.ID, nil
}

func (s *FichaStore) Get(ctx context.Context, id string) (models.Ficha, error) {
	snap, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		return models.Ficha{}, mapFirestoreError("getFicha", "ficha", id, err)
	}
	return decodeFicha(snap)
}

// Update overwrites the editable fields. deleted, deletedAt and createdAt are
// never touched; imageUrl only when f carries a new one.
func (s *FichaStore) Update(ctx context.Context, id string, f models.Ficha) error {
	updates := []firestore.Update{
		{Path: "region", Value: f.Region},
		{Path: "oficina", Value: f.Oficina},
		{Path: "cuadrante", Value: f.Cuadrante},
		{Path: "subcuadrante", Value: f.Subcuadrante},
		{Path: "ruta", Value: f.Ruta},
		{Path: "huso", Value: f.Huso},
		{Path: "n_trampa", Value: f.TrapNumber},
		{Path: "condicion_fija", Value: f.CondicionFija},
		{Path: "condicion_movil", Value: f.CondicionMovil},
		{Path: "condicion_temporal", Value: f.CondicionTemporal},
		{Path: "fecha", Value: f.Fecha},
		{Path: "actividad", Value: f.Actividad},
		{Path: "prospector", Value: f.Prospector},
		{Path: "localizacion", Value: f.Localizacion},
		{Path: "observaciones", Value: f.Observaciones},
	}
	if f.ImageURL != "" {
		updates = append(updates, firestore.Update{Path: "imageUrl", Value: f.ImageURL})
	}
	if _, err := s.col().Doc(id).Update(ctx, updates); err != nil {
		return mapFirestoreError("updateFicha", "ficha", id, err)
	}
	return nil
}

// SetTrashed moves a ficha in or out of the trash. A nil at restores it.
func (s *FichaStore) SetTrashed(ctx context.Context, id string, at *time.Time) error {
	updates := []firestore.Update{
		{Path: "deleted", Value: at != nil},
		{Path: "deletedAt", Value: nil},
	}
	if at != nil {
		updates[1].Value = *at
	}
	if _, err := s.col().Doc(id).Update(ctx, updates); err != nil {
		return mapFirestoreError("setTrashed", "ficha", id, err)
	}
	return nil
}

func (s *FichaStore) Delete(ctx context.Context, id string) error {
	if _, err := s.col().Doc(id).Delete(ctx); err != nil {
		return mapFirestoreError("deleteFicha", "ficha", id, err)
	}
	return nil
}

// ListByTrap returns the non-deleted fichas whose n_trampa equals trap.
func (s *FichaStore) ListByTrap(ctx context.Context, trap int64) ([]models.Ficha, error) {
	q := s.col().Where("n_trampa", "==", trap)
	return s.collect(ctx, "listFichasByTrap", q, func(f models.Ficha) bool { return !f.Deleted })
}

// ListActive returns the non-deleted fichas, newest first.
func (s *FichaStore) ListActive(ctx context.Context) ([]models.Ficha, error) {
	q := s.col().OrderBy("createdAt", firestore.Desc)
	return s.collect(ctx, "listFichas", q, func(f models.Ficha) bool { return !f.Deleted })
}

// ListTrashed returns the trashed fichas, most recently trashed first.
// The query needs a composite index on (deleted, deletedAt desc).
func (s *FichaStore) ListTrashed(ctx context.Context) ([]models.Ficha, error) {
	q := s.col().Where("deleted", "==", true).OrderBy("deletedAt", firestore.Desc)
	return s.collect(ctx, "listTrash", q, nil)
}

func (s *FichaStore) collect(ctx context.Context, op string, q firestore.Query, keep func(models.Ficha) bool) ([]models.Ficha, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	fichas := []models.Ficha{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.Transient(op, err, "failed to query fichas")
		}
		f, err := decodeFicha(snap)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(f) {
			fichas = append(fichas, f)
		}
	}
	return fichas, nil
}

func decodeFicha(snap *firestore.DocumentSnapshot) (models.Ficha, error) {
	var f models.Ficha
	if err := snap.DataTo(&f); err != nil {
		return models.Ficha{}, fmt.Errorf("decode ficha %s: %w", snap.Ref.ID, err)
	}
	f.ID = snap.Ref.ID
	return f, nil
}
