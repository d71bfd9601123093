package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page geometry of the inspection sheet, in PDF points on A4 portrait.
const (
	reportTop        = 790
	reportLeft       = 50
	reportValueLeft  = 210
	reportLineHeight = 20
)

// ReportService renders a ficha as a one page PDF inspection sheet.
type ReportService struct {
	fichas FichaRepository
	clock  Clock
}

func NewReportService(fichas FichaRepository, clock Clock) *ReportService {
	return &ReportService{fichas: fichas, clock: clock}
}

// layout mirrors the JSON page description pdfcpu's create command reads.
type layout struct {
	Paper  string                `json:"paper"`
	Origin string                `json:"origin"`
	Pages  map[string]layoutPage `json:"pages"`
}

type layoutPage struct {
	Content layoutContent `json:"content"`
}

type layoutContent struct {
	Text []layoutText `json:"text"`
}

type layoutText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  layoutFont `json:"font"`
}

type layoutFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// FichaReport writes the PDF sheet of a ficha to w.
func (s *ReportService) FichaReport(ctx context.Context, id string, w io.Writer) error {
	f, err := s.fichas.Get(ctx, id)
	if err != nil {
		return err
	}
	desc, err := json.Marshal(s.layoutFor(f))
	if err != nil {
		return fmt.Errorf("failed to marshal report layout: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Create(nil, bytes.NewReader(desc), w, conf); err != nil {
		slog.Error("Failed to render ficha report.", "fichaId", id, "error", err)
		return fmt.Errorf("failed to render report for ficha %s: %w", id, err)
	}
	return nil
}

func (s *ReportService) layoutFor(f models.Ficha) layout {
	loc := s.clock.now().Location()
	rows := [][2]string{
		{"N° trampa", strconv.FormatInt(f.TrapNumber, 10)},
		{"Fecha", f.Fecha.In(loc).Format("02/01/2006")},
		{"Región", formatNumber(f.Region)},
		{"Oficina", f.Oficina},
		{"Cuadrante", formatNumber(f.Cuadrante)},
		{"Subcuadrante", formatNumber(f.Subcuadrante)},
		{"Ruta", f.Ruta},
		{"Huso", strconv.FormatInt(f.Huso, 10)},
		{"Condición", conditions(f)},
		{"Actividad", f.Actividad},
		{"Prospector", f.Prospector},
		{"Localización", f.Localizacion},
		{"Observaciones", f.Observaciones},
	}
	if f.ImageURL != "" {
		rows = append(rows, [2]string{"Imagen", f.ImageURL})
	}

	text := []layoutText{{
		Value: "Ficha de inspección de trampa",
		Pos:   [2]float64{reportLeft, reportTop},
		Font:  layoutFont{Name: "Helvetica-Bold", Size: 16},
	}}
	y := float64(reportTop - 2*reportLineHeight)
	for _, r := range rows {
		text = append(text,
			layoutText{Value: r[0], Pos: [2]float64{reportLeft, y}, Font: layoutFont{Name: "Helvetica-Bold", Size: 11}},
			layoutText{Value: orDash(r[1]), Pos: [2]float64{reportValueLeft, y}, Font: layoutFont{Name: "Helvetica", Size: 11}},
		)
		y -= reportLineHeight
	}
	text = append(text, layoutText{
		Value: "Generado " + s.clock.now().Format(time.RFC3339),
		Pos:   [2]float64{reportLeft, y - reportLineHeight},
		Font:  layoutFont{Name: "Helvetica-Oblique", Size: 8},
	})

	return layout{
		Paper:  "A4P",
		Origin: "LowerLeft",
		Pages:  map[string]layoutPage{"1": {Content: layoutContent{Text: text}}},
	}
}

func conditions(f models.Ficha) string {
	var out []byte
	add := func(on bool, name string) {
		if !on {
			return
		}
		if len(out) > 0 {
			out = append(out, ", "...)
		}
		out = append(out, name...)
	}
	add(f.CondicionFija, "fija")
	add(f.CondicionMovil, "móvil")
	add(f.CondicionTemporal, "temporal")
	if len(out) == 0 {
		return "-"
	}
	return string(out)
}

// orDash keeps optional fields visible on the sheet. pdfcpu cannot lay out an
// empty text value.
func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
