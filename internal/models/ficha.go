package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
)

// Ficha is one trap inspection record in the fichas collection.
// TrapNumber links it to a Pin by value only; nothing enforces that the pin exists.
type Ficha struct {
	ID                string     `firestore:"-" json:"id"`
	Region            float64    `firestore:"region" json:"region"`
	Oficina           string     `firestore:"oficina" json:"oficina"`
	Cuadrante         float64    `firestore:"cuadrante" json:"cuadrante"`
	Subcuadrante      float64    `firestore:"subcuadrante" json:"subcuadrante"`
	Ruta              string     `firestore:"ruta" json:"ruta"`
	Huso              int64      `firestore:"huso" json:"huso"`
	TrapNumber        int64      `firestore:"n_trampa" json:"n_trampa"`
	CondicionFija     bool       `firestore:"condicion_fija" json:"condicion_fija"`
	CondicionMovil    bool       `firestore:"condicion_movil" json:"condicion_movil"`
	CondicionTemporal bool       `firestore:"condicion_temporal" json:"condicion_temporal"`
	Fecha             time.Time  `firestore:"fecha" json:"fecha"`
	Actividad         string     `firestore:"actividad" json:"actividad"`
	Prospector        string     `firestore:"prospector" json:"prospector"`
	Localizacion      string     `firestore:"localizacion" json:"localizacion"`
	Observaciones     string     `firestore:"observaciones" json:"observaciones"`
	ImageURL          string     `firestore:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt         time.Time  `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	Deleted           bool       `firestore:"deleted" json:"deleted"`
	DeletedAt         *time.Time `firestore:"deletedAt" json:"deletedAt"`
}

// ValidHusos are the UTM zones a ficha may be recorded in.
var ValidHusos = []int64{18, 19, 12}

// FichaInput is the form payload, with numbers still as typed text.
type FichaInput struct {
	Region            string `json:"region"`
	Oficina           string `json:"oficina"`
	Cuadrante         string `json:"cuadrante"`
	Subcuadrante      string `json:"subcuadrante"`
	Ruta              string `json:"ruta"`
	Huso              string `json:"huso"`
	TrapNumber        string `json:"n_trampa"`
	CondicionFija     bool   `json:"condicion_fija"`
	CondicionMovil    bool   `json:"condicion_movil"`
	CondicionTemporal bool   `json:"condicion_temporal"`
	Fecha             string `json:"fecha"`
	Actividad         string `json:"actividad"`
	Prospector        string `json:"prospector"`
	Localizacion      string `json:"localizacion"`
	Observaciones     string `json:"observaciones"`
}

// Validate coerces the form into a Ficha. Date-only values are read in loc.
// Nothing is persisted here; any error is a validation error.
func (in FichaInput) Validate(loc *time.Location) (Ficha, error) {
	const op = "validateFicha"
	var f Ficha
	var err error

	if f.Region, err = parseNumber("region", in.Region); err != nil {
		return Ficha{}, err
	}
	if f.Cuadrante, err = parseNumber("cuadrante", in.Cuadrante); err != nil {
		return Ficha{}, err
	}
	if f.Subcuadrante, err = parseNumber("subcuadrante", in.Subcuadrante); err != nil {
		return Ficha{}, err
	}

	trap := strings.TrimSpace(in.TrapNumber)
	if f.TrapNumber, err = strconv.ParseInt(trap, 10, 64); err != nil {
		return Ficha{}, apperrors.Validation(op, "n_trampa must be a whole number, got %q", in.TrapNumber)
	}

	huso, err := strconv.ParseInt(strings.TrimSpace(in.Huso), 10, 64)
	if err != nil || !validHuso(huso) {
		return Ficha{}, apperrors.Validation(op, "huso must be one of 18, 19 or 12, got %q", in.Huso)
	}
	f.Huso = huso

	required := []struct {
		name  string
		value string
		dst   *string
	}{
		{"oficina", in.Oficina, &f.Oficina},
		{"ruta", in.Ruta, &f.Ruta},
		{"actividad", in.Actividad, &f.Actividad},
		{"prospector", in.Prospector, &f.Prospector},
		{"localizacion", in.Localizacion, &f.Localizacion},
	}
	for _, r := range required {
		v := strings.TrimSpace(r.value)
		if v == "" {
			return Ficha{}, apperrors.Validation(op, "%s is required", r.name)
		}
		*r.dst = v
	}

	if f.Fecha, err = trapstatus.ParseInstallDate(in.Fecha, loc); err != nil {
		return Ficha{}, apperrors.Validation(op, "fecha is not a valid date: %v", err)
	}

	f.Observaciones = strings.TrimSpace(in.Observaciones)
	f.CondicionFija = in.CondicionFija
	f.CondicionMovil = in.CondicionMovil
	f.CondicionTemporal = in.CondicionTemporal
	return f, nil
}

func parseNumber(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.Validation("validateFicha", "%s must be a number, got %q", field, raw)
	}
	return v, nil
}

func validHuso(h int64) bool {
	for _, v := range ValidHusos {
		if v == h {
			return true
		}
	}
	return false
}

// PurgeResult reports what a permanent delete actually did.
type PurgeResult struct {
	ID          string `json:"id"`
	BlobPath    string `json:"blobPath,omitempty"`
	BlobDeleted bool   `json:"blobDeleted"`
	BlobError   string `json:"blobError,omitempty"`
	Error       string `json:"error,omitempty"`
}
