package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/Lllllllleong/trapmonitor/internal/api/middleware"
	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
	"github.com/gorilla/mux"
)

// MaxImageBytes caps the image attached to a new ficha.
const MaxImageBytes = 10 << 20

func ListFichas(svc *services.FichaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fichas, err := svc.ListFichas(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		if fichas == nil {
			fichas = []models.Ficha{}
		}
		writeJSON(w, http.StatusOK, fichas)
	}
}

// CreateFicha accepts either a JSON form or a multipart form whose "image"
// part is the photo of the trap.
func CreateFicha(svc *services.FichaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.FichaInput
		var img *services.Image

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			var err error
			if in, img, err = readMultipartFicha(w, r); err != nil {
				middleware.WriteError(w, r, err)
				return
			}
		} else if !decodeJSON(w, r, &in) {
			return
		}

		id, err := svc.CreateFicha(r.Context(), in, img)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.CreatedResponse{ID: id})
	}
}

func GetFicha(svc *services.FichaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.GetFicha(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func UpdateFicha(svc *services.FichaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.FichaInput
		if !decodeJSON(w, r, &in) {
			return
		}
		id := mux.Vars(r)["id"]
		if err := svc.UpdateFicha(r.Context(), id, in); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.CreatedResponse{ID: id})
	}
}

// FichaReport streams the PDF sheet of a ficha. The document is rendered
// into memory first so a failure still yields a JSON error.
func FichaReport(svc *services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		var buf bytes.Buffer
		if err := svc.FichaReport(r.Context(), id, &buf); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": "ficha-" + id + ".pdf"}))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, _ = buf.WriteTo(w)
	}
}

func readMultipartFicha(w http.ResponseWriter, r *http.Request) (models.FichaInput, *services.Image, error) {
	const op = "createFicha"
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		return models.FichaInput{}, nil, apperrors.Validation(op, "invalid multipart form: %v", err)
	}

	in := models.FichaInput{
		Region:            r.FormValue("region"),
		Oficina:           r.FormValue("oficina"),
		Cuadrante:         r.FormValue("cuadrante"),
		Subcuadrante:      r.FormValue("subcuadrante"),
		Ruta:              r.FormValue("ruta"),
		Huso:              r.FormValue("huso"),
		TrapNumber:        r.FormValue("n_trampa"),
		CondicionFija:     formBool(r.FormValue("condicion_fija")),
		CondicionMovil:    formBool(r.FormValue("condicion_movil")),
		CondicionTemporal: formBool(r.FormValue("condicion_temporal")),
		Fecha:             r.FormValue("fecha"),
		Actividad:         r.FormValue("actividad"),
		Prospector:        r.FormValue("prospector"),
		Localizacion:      r.FormValue("localizacion"),
		Observaciones:     r.FormValue("observaciones"),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return models.FichaInput{}, nil, apperrors.Validation(op, "invalid image part: %v", err)
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		return models.FichaInput{}, nil, apperrors.Validation(op, "image is larger than %d bytes", MaxImageBytes)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return models.FichaInput{}, nil, apperrors.Validation(op, "could not read image: %v", err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return in, &services.Image{Data: data, ContentType: contentType, Filename: header.Filename}, nil
}

// formBool reads an HTML checkbox value.
func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
