package services

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
)

var trapNumberPattern = regexp.MustCompile(`^[0-9]{9}$`)

// PinService implements the map-pin operations.
type PinService struct {
	pins   PinRepository
	fichas FichaRepository
	clock  Clock
}

func NewPinService(pins PinRepository, fichas FichaRepository, clock Clock) *PinService {
	return &PinService{pins: pins, fichas: fichas, clock: clock}
}

// CreatePin stores a new trap. The flags are derived from the label the user
// picked, the inverse of the usual classification direction.
func (s *PinService) CreatePin(ctx context.Context, req models.CreatePinRequest) (string, error) {
	const op = "createPin"
	now := s.clock.now()

	trap := strings.TrimSpace(req.TrapNumber)
	if !trapNumberPattern.MatchString(trap) {
		return "", apperrors.Validation(op, "invalid trap number: must be exactly 9 digits")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return "", apperrors.Validation(op, "description is required")
	}
	if err := validateCoordinates(req.Lat, req.Lng); err != nil {
		return "", err
	}
	label, err := trapstatus.ParseLabel(req.Status)
	if err != nil {
		return "", apperrors.Validation(op, "%v", err)
	}
	installed := now
	if strings.TrimSpace(req.InstalledAt) != "" {
		if installed, err = trapstatus.ParseInstallDate(req.InstalledAt, now.Location()); err != nil {
			return "", apperrors.Validation(op, "fecha_instalacion: %v", err)
		}
	}

	removed, pest := trapstatus.FlagsFor(label)
	pin := models.Pin{
		Lat:          req.Lat,
		Lng:          req.Lng,
		Description:  description,
		TrapNumber:   trap,
		InstalledAt:  installed,
		PestDetected: pest,
		Removed:      removed,
		Status:       label,
	}
	id, err := s.pins.Create(ctx, pin)
	if err != nil {
		return "", err
	}
	slog.Info("Pin created.", "pinId", id, "trapNumber", trap, "estado", label)
	return id, nil
}

// UpdatePinStatus applies a hand-picked label and returns the flags written,
// so the caller can update any copy of the pin it holds.
func (s *PinService) UpdatePinStatus(ctx context.Context, pinID, newStatus string) (models.PinFlags, error) {
	const op = "updatePinStatus"
	if strings.TrimSpace(pinID) == "" {
		return models.PinFlags{}, apperrors.Validation(op, "pin id is required")
	}
	label, err := trapstatus.ParseLabel(newStatus)
	if err != nil {
		return models.PinFlags{}, apperrors.Validation(op, "%v", err)
	}

	removed, pest := trapstatus.FlagsFor(label)
	if err := s.pins.UpdateStatus(ctx, pinID, label, removed, pest); err != nil {
		return models.PinFlags{}, err
	}
	slog.Info("Pin status updated.", "pinId", pinID, "estado", label)
	return models.PinFlags{Status: label, Removed: removed, PestDetected: pest}, nil
}

// DeletePin removes the pin for good. Fichas keep their n_trampa.
func (s *PinService) DeletePin(ctx context.Context, pinID string) error {
	if strings.TrimSpace(pinID) == "" {
		return apperrors.Validation("deletePin", "pin id is required")
	}
	if err := s.pins.Delete(ctx, pinID); err != nil {
		return err
	}
	slog.Info("Pin deleted.", "pinId", pinID)
	return nil
}

func (s *PinService) GetPin(ctx context.Context, pinID string) (models.PinView, error) {
	pin, err := s.pins.Get(ctx, pinID)
	if err != nil {
		return models.PinView{}, err
	}
	return s.view(pin), nil
}

// ListPins returns every pin with its status recomputed for today next to the stored one.
func (s *PinService) ListPins(ctx context.Context) ([]models.PinView, error) {
	pins, err := s.pins.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.PinView, 0, len(pins))
	for _, p := range pins {
		views = append(views, s.view(p))
	}
	return views, nil
}

func (s *PinService) view(p models.Pin) models.PinView {
	current := p.Recompute(trapstatus.PinMap, s.clock.now())
	return models.PinView{Pin: p, CurrentStatus: current, Stale: current != p.Status}
}

// FindFichasForPin lists the live fichas that reference a trap number. A
// number with no pin, or a deleted pin, simply yields an empty list.
func (s *PinService) FindFichasForPin(ctx context.Context, trapNumber string) ([]models.Ficha, error) {
	trap, err := strconv.ParseInt(strings.TrimSpace(trapNumber), 10, 64)
	if err != nil {
		return nil, apperrors.Validation("findFichasForPin", "trap number must be numeric, got %q", trapNumber)
	}
	fichas, err := s.fichas.ListByTrap(ctx, trap)
	if err != nil {
		return nil, err
	}
	live := make([]models.Ficha, 0, len(fichas))
	for _, f := range fichas {
		if !f.Deleted {
			live = append(live, f)
		}
	}
	return live, nil
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperrors.Validation("createPin", "coordinates out of range: %v, %v", lat, lng)
	}
	return nil
}
