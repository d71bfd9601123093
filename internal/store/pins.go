// Package store persists pins and fichas in Firestore.
package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PinStore reads and writes the pins collection.
type PinStore struct {
	client     *firestore.Client
	collection string
}

func NewPinStore(client *firestore.Client, collection string) *PinStore {
	return &PinStore{client: client, collection: collection}
}

func (s *PinStore) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *PinStore) Create(ctx context.Context, pin models.Pin) (string, error) {
	docRef, _, err := s.col().Add(ctx, pin)
	if err != nil {
		return "", apperrors.Transient("createPin", err, "failed to create pin document")
	}
	return docRef.ID, nil
}

func (s *PinStore) Get(ctx context.Context, id string) (models.Pin, error) {
	snap, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		return models.Pin{}, mapFirestoreError("getPin", "pin", id, err)
	}
	var pin models.Pin
	if err := snap.DataTo(&pin); err != nil {
		return models.Pin{}, fmt.Errorf("decode pin %s: %w", id, err)
	}
	pin.ID = snap.Ref.ID
	return pin, nil
}

// UpdateStatus writes the label and the flags derived from it in one update.
func (s *PinStore) UpdateStatus(ctx context.Context, id string, label trapstatus.Label, removed, pestDetected bool) error {
	updates := []firestore.Update{
		{Path: "estado", Value: string(label)},
		{Path: "retirada", Value: removed},
		{Path: "plaga_detectada", Value: pestDetected},
		{Path: "timestamp", Value: firestore.ServerTimestamp},
	}
	if _, err := s.col().Doc(id).Update(ctx, updates); err != nil {
		return mapFirestoreError("updatePinStatus", "pin", id, err)
	}
	return nil
}

// Delete removes the pin permanently. Fichas that reference it are left alone.
func (s *PinStore) Delete(ctx context.Context, id string) error {
	if _, err := s.col().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapFirestoreError("deletePin", "pin", id, err)
	}
	return nil
}

func (s *PinStore) List(ctx context.Context) ([]models.Pin, error) {
	it := s.col().Documents(ctx)
	defer it.Stop()

	var pins []models.Pin
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.Transient("listPins", err, "failed to list pins")
		}
		var pin models.Pin
		if err := snap.DataTo(&pin); err != nil {
			return nil, fmt.Errorf("decode pin %s: %w", snap.Ref.ID, err)
		}
		pin.ID = snap.Ref.ID
		pins = append(pins, pin)
	}
	return pins, nil
}

func mapFirestoreError(op, kind, id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return apperrors.NotFound(op, "%s %s not found", kind, id)
	}
	return apperrors.Transient(op, err, fmt.Sprintf("firestore request for %s %s failed", kind, id))
}
