package models

import (
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
)

// Pin is a map marker for a physical trap, stored in the pins collection.
// Status is a cached classification taken at write time; see trapstatus.
type Pin struct {
	ID           string           `firestore:"-" json:"id"`
	Lat          float64          `firestore:"lat" json:"lat"`
	Lng          float64          `firestore:"lng" json:"lng"`
	Description  string           `firestore:"description" json:"description"`
	TrapNumber   string           `firestore:"n_trampa" json:"n_trampa"`
	InstalledAt  time.Time        `firestore:"fecha_instalacion" json:"fecha_instalacion"`
	PestDetected bool             `firestore:"plaga_detectada" json:"plaga_detectada"`
	Removed      bool             `firestore:"retirada" json:"retirada"`
	Status       trapstatus.Label `firestore:"estado" json:"estado"`
	Timestamp    time.Time        `firestore:"timestamp,serverTimestamp" json:"timestamp"`
}

// Recompute classifies the pin as of now, ignoring the stored Status.
func (p Pin) Recompute(policy trapstatus.Policy, now time.Time) trapstatus.Label {
	return trapstatus.Classify(policy, p.InstalledAt, p.PestDetected, p.Removed, now)
}

// PinFlags is what a status change writes back, so callers can refresh any
// copy of the pin they hold.
type PinFlags struct {
	Status       trapstatus.Label `json:"estado"`
	Removed      bool             `json:"retirada"`
	PestDetected bool             `json:"plaga_detectada"`
}

// PinView pairs a stored pin with its status as of the request.
type PinView struct {
	Pin
	CurrentStatus trapstatus.Label `json:"estadoActual"`
	Stale         bool             `json:"estadoDesactualizado"`
}
