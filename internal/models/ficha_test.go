package models

import (
	"testing"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() FichaInput {
	return FichaInput{
		Region:            "13",
		Oficina:           "Santiago",
		Cuadrante:         "402",
		Subcuadrante:      "7",
		Ruta:              "R-12",
		Huso:              "19",
		TrapNumber:        "123456789",
		CondicionFija:     true,
		CondicionTemporal: true,
		Fecha:             "2025-03-01",
		Actividad:         "Revisión",
		Prospector:        "J. Pérez",
		Localizacion:      "Parcela 4",
		Observaciones:     "  sin novedad ",
	}
}

func TestFichaInputValidate(t *testing.T) {
	loc := time.FixedZone("CLT", -3*60*60)

	f, err := validInput().Validate(loc)
	require.NoError(t, err)

	assert.Equal(t, 13.0, f.Region)
	assert.Equal(t, 402.0, f.Cuadrante)
	assert.Equal(t, 7.0, f.Subcuadrante)
	assert.Equal(t, int64(19), f.Huso)
	assert.Equal(t, int64(123456789), f.TrapNumber)
	assert.True(t, f.CondicionFija)
	assert.False(t, f.CondicionMovil)
	assert.True(t, f.CondicionTemporal)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, loc), f.Fecha)
	assert.Equal(t, "sin novedad", f.Observaciones)
	assert.False(t, f.Deleted)
	assert.Nil(t, f.DeletedAt)
}

func TestFichaInputValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FichaInput)
	}{
		{"non numeric region", func(in *FichaInput) { in.Region = "trece" }},
		{"empty cuadrante", func(in *FichaInput) { in.Cuadrante = "" }},
		{"nan subcuadrante", func(in *FichaInput) { in.Subcuadrante = "NaN" }},
		{"decimal trap number", func(in *FichaInput) { in.TrapNumber = "12.5" }},
		{"unknown huso", func(in *FichaInput) { in.Huso = "20" }},
		{"missing oficina", func(in *FichaInput) { in.Oficina = "   " }},
		{"missing prospector", func(in *FichaInput) { in.Prospector = "" }},
		{"bad date", func(in *FichaInput) { in.Fecha = "ayer" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := in.Validate(time.UTC)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestPrincipalIsAdmin(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.IsAdmin())
	assert.False(t, (&Principal{UID: "u1", Claims: map[string]interface{}{"commonUser": true}}).IsAdmin())
	assert.False(t, (&Principal{UID: "u1", Claims: map[string]interface{}{"admin": "true"}}).IsAdmin())
	assert.True(t, (&Principal{UID: "u1", Claims: map[string]interface{}{"admin": true}}).IsAdmin())
}
