// Package testutil provides in-memory stand-ins for the Firestore, Cloud
// Storage and Firebase Auth adapters.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// FakePins is an in-memory pins collection.
type FakePins struct {
	mu      sync.Mutex
	seq     int
	Docs    map[string]models.Pin
	Updates int
	FailOn  map[string]error
}

func NewFakePins(pins ...models.Pin) *FakePins {
	f := &FakePins{Docs: make(map[string]models.Pin), FailOn: make(map[string]error)}
	for _, p := range pins {
		f.Docs[p.ID] = p
	}
	return f
}

func (f *FakePins) Create(_ context.Context, pin models.Pin) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["create"]; err != nil {
		return "", err
	}
	f.seq++
	pin.ID = fmt.Sprintf("pin-%d", f.seq)
	f.Docs[pin.ID] = pin
	return pin.ID, nil
}

func (f *FakePins) Get(_ context.Context, id string) (models.Pin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Docs[id]
	if !ok {
		return models.Pin{}, apperrors.NotFound("getPin", "pin %s not found", id)
	}
	return p, nil
}

func (f *FakePins) UpdateStatus(_ context.Context, id string, label trapstatus.Label, removed, pestDetected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn[id]; err != nil {
		return err
	}
	p, ok := f.Docs[id]
	if !ok {
		return apperrors.NotFound("updatePinStatus", "pin %s not found", id)
	}
	p.Status, p.Removed, p.PestDetected = label, removed, pestDetected
	f.Docs[id] = p
	f.Updates++
	return nil
}

func (f *FakePins) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Docs[id]; !ok {
		return apperrors.NotFound("deletePin", "pin %s not found", id)
	}
	delete(f.Docs, id)
	return nil
}

func (f *FakePins) List(_ context.Context) ([]models.Pin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["list"]; err != nil {
		return nil, err
	}
	out := make([]models.Pin, 0, len(f.Docs))
	for _, p := range f.Docs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FakeFichas is an in-memory fichas collection. CreatedAt is stamped from
// Clock on Create, standing in for the server timestamp.
type FakeFichas struct {
	mu    sync.Mutex
	seq   int
	Docs  map[string]models.Ficha
	Clock func() time.Time
	// FailOn makes the named operation ("create", "delete", "list") fail.
	FailOn map[string]error
}

func NewFakeFichas(fichas ...models.Ficha) *FakeFichas {
	f := &FakeFichas{Docs: make(map[string]models.Ficha), FailOn: make(map[string]error), Clock: time.Now}
	for _, x := range fichas {
		f.Docs[x.ID] = x
	}
	return f
}

func (f *FakeFichas) Create(_ context.Context, x models.Ficha) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["create"]; err != nil {
		return "", err
	}
	f.seq++
	x.ID = fmt.Sprintf("ficha-%d", f.seq)
	x.Deleted, x.DeletedAt = false, nil
	x.CreatedAt = f.Clock()
	f.Docs[x.ID] = x
	return x.ID, nil
}

func (f *FakeFichas) Get(_ context.Context, id string) (models.Ficha, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	x, ok := f.Docs[id]
	if !ok {
		return models.Ficha{}, apperrors.NotFound("getFicha", "ficha %s not found", id)
	}
	return x, nil
}

func (f *FakeFichas) Update(_ context.Context, id string, x models.Ficha) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.Docs[id]
	if !ok {
		return apperrors.NotFound("updateFicha", "ficha %s not found", id)
	}
	x.ID, x.CreatedAt, x.Deleted, x.DeletedAt = id, old.CreatedAt, old.Deleted, old.DeletedAt
	if x.ImageURL == "" {
		x.ImageURL = old.ImageURL
	}
	f.Docs[id] = x
	return nil
}

func (f *FakeFichas) SetTrashed(_ context.Context, id string, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	x, ok := f.Docs[id]
	if !ok {
		return apperrors.NotFound("setTrashed", "ficha %s not found", id)
	}
	x.Deleted = at != nil
	x.DeletedAt = nil
	if at != nil {
		t := *at
		x.DeletedAt = &t
	}
	f.Docs[id] = x
	return nil
}

func (f *FakeFichas) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["delete"]; err != nil {
		return err
	}
	delete(f.Docs, id)
	return nil
}

func (f *FakeFichas) ListByTrap(_ context.Context, trap int64) ([]models.Ficha, error) {
	return f.filter(func(x models.Ficha) bool { return x.TrapNumber == trap && !x.Deleted })
}

func (f *FakeFichas) ListActive(_ context.Context) ([]models.Ficha, error) {
	out, err := f.filter(func(x models.Ficha) bool { return !x.Deleted })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

// ListTrashed returns trashed fichas in id order, leaving the ordering to the caller.
func (f *FakeFichas) ListTrashed(_ context.Context) ([]models.Ficha, error) {
	return f.filter(func(x models.Ficha) bool { return x.Deleted })
}

func (f *FakeFichas) filter(keep func(models.Ficha) bool) ([]models.Ficha, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn["list"]; err != nil {
		return nil, err
	}
	out := []models.Ficha{}
	for _, x := range f.Docs {
		if keep(x) {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FakeBlobs is an in-memory bucket. URLs look like gs://fake/<path>.
type FakeBlobs struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	UploadErr  error
	DeleteErr  error
	Deleted    []string
	UploadCall int
}

const fakeURLPrefix = "gs://fake/"

func NewFakeBlobs() *FakeBlobs {
	return &FakeBlobs{Objects: make(map[string][]byte)}
}

func (b *FakeBlobs) Upload(_ context.Context, path string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.UploadCall++
	if b.UploadErr != nil {
		return b.UploadErr
	}
	if _, ok := b.Objects[path]; ok {
		return apperrors.Conflict("upload", "object %s already exists", path)
	}
	b.Objects[path] = append([]byte(nil), data...)
	return nil
}

func (b *FakeBlobs) URL(_ context.Context, path string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.Objects[path]; !ok {
		return "", apperrors.NotFound("imageURL", "object %s not found", path)
	}
	return fakeURLPrefix + path, nil
}

func (b *FakeBlobs) PathFromURL(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, fakeURLPrefix) || len(rawURL) == len(fakeURLPrefix) {
		return "", apperrors.Validation("pathFromURL", "not a storage URL: %q", rawURL)
	}
	return strings.TrimPrefix(rawURL, fakeURLPrefix), nil
}

// Delete of a missing object succeeds, like the real adapter.
func (b *FakeBlobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.Objects, path)
	b.Deleted = append(b.Deleted, path)
	return nil
}

// FakeDirectory is an in-memory identity provider. Calls counts every
// provider call so tests can assert nothing was attempted.
type FakeDirectory struct {
	mu     sync.Mutex
	seq    int
	Users  map[string]models.UserAccount
	Calls  int
	Tokens map[string]*models.Principal
	Err    error
}

func NewFakeDirectory(users ...models.UserAccount) *FakeDirectory {
	d := &FakeDirectory{Users: make(map[string]models.UserAccount), Tokens: make(map[string]*models.Principal)}
	for _, u := range users {
		d.Users[u.UID] = u
	}
	return d
}

func (d *FakeDirectory) call() error {
	d.Calls++
	return d.Err
}

func (d *FakeDirectory) VerifyIDToken(_ context.Context, token string) (*models.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.Tokens[token]
	if !ok {
		return nil, apperrors.Unauthenticated("verifyIdToken", "invalid or expired ID token")
	}
	return p, nil
}

func (d *FakeDirectory) ListUsers(_ context.Context) ([]models.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(); err != nil {
		return nil, err
	}
	out := make([]models.UserAccount, 0, len(d.Users))
	for _, u := range d.Users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (d *FakeDirectory) GetUser(_ context.Context, uid string) (models.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(); err != nil {
		return models.UserAccount{}, err
	}
	u, ok := d.Users[uid]
	if !ok {
		return models.UserAccount{}, apperrors.NotFound("getUser", "account %s not found", uid)
	}
	return u, nil
}

func (d *FakeDirectory) GetUserByEmail(_ context.Context, email string) (models.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(); err != nil {
		return models.UserAccount{}, err
	}
	for _, u := range d.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.UserAccount{}, apperrors.NotFound("getUserByEmail", "account %s not found", email)
}

func (d *FakeDirectory) CreateUser(_ context.Context, email, _ string) (models.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(); err != nil {
		return models.UserAccount{}, err
	}
	for _, u := range d.Users {
		if u.Email == email {
			return models.UserAccount{}, apperrors.Conflict("createUser", "email %s is already in use", email)
		}
	}
	d.seq++
	u := models.UserAccount{UID: fmt.Sprintf("uid-%d", d.seq), Email: email}
	d.Users[u.UID] = u
	return u, nil
}

func (d *FakeDirectory) SetCustomClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	return d.update(uid, func(u *models.UserAccount) { u.CustomClaims = claims })
}

func (d *FakeDirectory) UpdateEmail(_ context.Context, uid, email string) error {
	return d.update(uid, func(u *models.UserAccount) { u.Email = email })
}

func (d *FakeDirectory) UpdatePassword(_ context.Context, uid, _ string) error {
	return d.update(uid, func(*models.UserAccount) {})
}

func (d *FakeDirectory) DeleteUser(_ context.Context, uid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(); err != nil {
		return err
	}
	if _, ok := d.Users[uid]; !ok {
		return apperrors.NotFound("deleteUser", "account %s not found", uid)
	}
	delete(d.Users, uid)
	return nil
}

func (d *FakeDirectory) update(uid string, fn func(*models.UserAccount)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(); err != nil {
		return err
	}
	u, ok := d.Users[uid]
	if !ok {
		return apperrors.NotFound("updateUser", "account %s not found", uid)
	}
	fn(&u)
	d.Users[uid] = u
	return nil
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Date builds a midnight time in loc.
func Date(loc *time.Location, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
