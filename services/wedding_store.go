package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"eternity-backend/database"
	"eternity-backend/models"
	"eternity-backend/utils"
)

type LoadState string

const (
	StateUninitialized LoadState = "uninitialized"
	StateLoading       LoadState = "loading"
	StateReady         LoadState = "ready"
)

const (
	maxActivities = 200
	maxBatchSize  = 500
)

var (
	ErrNameRequired    = errors.New("guest name is required")
	ErrInviteeNotFound = database.ErrInviteeNotFound
	ErrBackendWrite    = errors.New("backend write failed")
	ErrInvalidPatch    = errors.New("invalid invitee update")
	ErrAlreadyStarted  = errors.New("wedding store already started")
	ErrBatchTooLarge   = fmt.Errorf("a batch can hold at most %d guests", maxBatchSize)

	// ErrNotPersisted accompanies ErrBackendWrite in local mode, where the
	// change is already applied in memory and only the save to storage failed.
	ErrNotPersisted = errors.New("change applied but not saved")
)

// Notifier is told about every recorded RSVP. Failures are logged only.
type Notifier interface {
	NotifyRSVP(ctx context.Context, settings models.WeddingSettings, inv models.Invitee) error
}

type StoreOptions struct {
	Passcode string
	AppURL   string
	Notifier Notifier
}

// WeddingStore is the in-memory mirror of settings and invitees and the only
// entry point for mutating them. Reads are served from the mirror; writes go
// to the backend, which pushes full snapshots back through its listeners.
type WeddingStore struct {
	backend  database.Backend
	passcode string
	appURL   string
	notifier Notifier

	mu         sync.RWMutex
	state      LoadState
	settings   models.WeddingSettings
	invitees   []models.Invitee
	reserved   map[string]struct{}
	activities []models.Activity

	ready     chan struct{}
	readyOnce sync.Once
	seeding   atomic.Bool
	cancel    context.CancelFunc
	unsubs    []database.Unsubscribe
}

func NewWeddingStore(backend database.Backend, opts StoreOptions) *WeddingStore {
	return &WeddingStore{
		backend:  backend,
		passcode: opts.Passcode,
		appURL:   strings.TrimRight(opts.AppURL, "/"),
		notifier: opts.Notifier,
		state:    StateUninitialized,
		settings: models.DefaultSettings(),
		invitees: make([]models.Invitee, 0),
		reserved: map[string]struct{}{},
		ready:    make(chan struct{}),
	}
}

// Start subscribes to the backend. The store is Ready once the first invitee
// snapshot has arrived; with the local backend that happens before Start
// returns.
func (s *WeddingStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateLoading
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	unsubSettings, err := s.backend.SubscribeSettings(ctx, s.applySettingsSnapshot)
	if err != nil {
		return fmt.Errorf("failed to subscribe to settings: %w", err)
	}
	unsubInvitees, err := s.backend.SubscribeInvitees(ctx, s.applyInviteesSnapshot)
	if err != nil {
		unsubSettings()
		return fmt.Errorf("failed to subscribe to invitees: %w", err)
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsubSettings, unsubInvitees)
	s.mu.Unlock()

	utils.Logger.WithField("mode", s.backend.Mode()).Info("Wedding store subscribed")
	return nil
}

// Close unregisters every listener and releases the backend.
func (s *WeddingStore) Close() error {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	cancel := s.cancel
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	return s.backend.Close()
}

func (s *WeddingStore) Mode() database.Mode {
	return s.backend.Mode()
}

func (s *WeddingStore) Status() LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// WaitReady blocks until the first invitee snapshot has been applied.
func (s *WeddingStore) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WeddingStore) applySettingsSnapshot(settings models.WeddingSettings, exists bool) {
	if !exists {
		// Seeding runs off the listener so it never re-enters the backend
		// from inside a notification.
		if s.seeding.CompareAndSwap(false, true) {
			go s.seedSettings()
		}
		return
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

func (s *WeddingStore) seedSettings() {
	defer s.seeding.Store(false)

	s.mu.RLock()
	current := s.settings
	s.mu.RUnlock()

	if err := s.backend.UpsertSettings(context.Background(), models.FullSettingsPatch(current)); err != nil {
		utils.ErrorHandler(err, "Failed to seed default settings")
		return
	}
	utils.Logger.Info("Seeded default wedding settings")
}

// applyInviteesSnapshot replaces the mirror wholesale; snapshots are
// authoritative and never merged.
func (s *WeddingStore) applyInviteesSnapshot(invitees []models.Invitee) {
	mirror := make([]models.Invitee, len(invitees))
	copy(mirror, invitees)

	s.mu.Lock()
	s.invitees = mirror
	for _, inv := range mirror {
		delete(s.reserved, inv.Slug)
	}
	s.state = StateReady
	s.mu.Unlock()

	s.readyOnce.Do(func() {
		close(s.ready)
		utils.Logger.WithField("invitees", len(mirror)).Info("Wedding store ready")
	})
}

// Login compares the shared passcode. There is no lockout or backoff.
func (s *WeddingStore) Login(passcode string) bool {
	if s.passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(passcode), []byte(s.passcode)) == 1
}

// Settings returns the current settings, including optimistic changes the
// backend has not confirmed yet.
func (s *WeddingStore) Settings() models.WeddingSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Invitees returns a copy of the mirror, ordered by name.
func (s *WeddingStore) Invitees() []models.Invitee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Invitee, len(s.invitees))
	copy(out, s.invitees)
	return out
}

// GetInvitee finds an invitee by id or slug. Unknown identifiers report
// false; it never fails.
func (s *WeddingStore) GetInvitee(identifier string) (models.Invitee, bool) {
	if identifier == "" {
		return models.Invitee{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitees {
		if inv.ID == identifier || inv.Slug == identifier {
			return inv, true
		}
	}
	return models.Invitee{}, false
}

// takenSlugs must be called with mu held.
func (s *WeddingStore) takenSlugs() map[string]struct{} {
	taken := make(map[string]struct{}, len(s.invitees)+len(s.reserved))
	for _, inv := range s.invitees {
		taken[inv.Slug] = struct{}{}
	}
	for slug := range s.reserved {
		taken[slug] = struct{}{}
	}
	return taken
}

// allocate builds new invitee records with slugs unique against the mirror,
// slugs still awaiting confirmation, and each other. The slugs stay reserved
// until a snapshot contains them or the write fails.
func (s *WeddingStore) allocate(entries []models.NewInvitee) []models.Invitee {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := s.takenSlugs()
	out := make([]models.Invitee, 0, len(entries))
	for _, entry := range entries {
		slug := UniqueSlug(Slugify(entry.Name), taken)
		taken[slug] = struct{}{}
		s.reserved[slug] = struct{}{}

		out = append(out, models.Invitee{
			ID:                  NewID(),
			Slug:                slug,
			Name:                strings.TrimSpace(entry.Name),
			Title:               strings.TrimSpace(entry.Title),
			Viewed:              false,
			RSVPStatus:          models.RSVPPending,
			GuestCount:          0,
			DietaryRestrictions: "",
		})
	}
	return out
}

func (s *WeddingStore) release(invs []models.Invitee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range invs {
		delete(s.reserved, inv.Slug)
	}
}

// AddInvitee creates a pending invitee. The message is left unset so guest
// pages fall back to the default greeting.
//
// In local mode a failed save still returns the new record, together with
// an error wrapping ErrNotPersisted. The same holds for every other mutation.
func (s *WeddingStore) AddInvitee(ctx context.Context, name, title string) (models.Invitee, error) {
	if strings.TrimSpace(name) == "" {
		return models.Invitee{}, ErrNameRequired
	}

	invs := s.allocate([]models.NewInvitee{{Name: name, Title: title}})
	inv := invs[0]

	var saveErr error
	if err := s.backend.UpsertInvitee(ctx, inv); err != nil {
		saveErr = s.writeFailed(err, "Failed to add guest", logrus.Fields{"slug": inv.Slug})
		if !errors.Is(saveErr, ErrNotPersisted) {
			s.release(invs)
			return models.Invitee{}, saveErr
		}
	}

	s.record(models.ActivityGuestAdded, inv.ID, fmt.Sprintf("%s was added to the guest list", inv.Name))
	return inv, saveErr
}

// AddBatchInvitees adds every entry in one all-or-nothing backend write. A
// blank name anywhere, or more than maxBatchSize entries, rejects the whole
// batch before anything is written.
func (s *WeddingStore) AddBatchInvitees(ctx context.Context, entries []models.NewInvitee) ([]models.Invitee, error) {
	for _, entry := range entries {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, ErrNameRequired
		}
	}
	if len(entries) == 0 {
		return []models.Invitee{}, nil
	}
	if len(entries) > maxBatchSize {
		return nil, ErrBatchTooLarge
	}

	invs := s.allocate(entries)
	var saveErr error
	if err := s.backend.BatchUpsertInvitees(ctx, invs); err != nil {
		saveErr = s.writeFailed(err, "Failed to save batch guests", logrus.Fields{"count": len(invs)})
		if !errors.Is(saveErr, ErrNotPersisted) {
			s.release(invs)
			return nil, saveErr
		}
	}

	s.record(models.ActivityGuestsImported, "", fmt.Sprintf("%d guests were imported", len(invs)))
	return invs, saveErr
}

// UpdateInvitee patches only the named fields. An empty patch is a no-op.
func (s *WeddingStore) UpdateInvitee(ctx context.Context, id string, patch models.InviteePatch) error {
	inv, ok := s.inviteeByID(id)
	if !ok {
		return ErrInviteeNotFound
	}
	if patch.IsEmpty() {
		return nil
	}
	if err := validatePatch(patch); err != nil {
		return err
	}

	err := s.patchInvitee(ctx, id, patch)
	if err != nil && !errors.Is(err, ErrNotPersisted) {
		return err
	}

	s.record(models.ActivityGuestUpdated, id, fmt.Sprintf("%s was updated", patch.Apply(inv).Name))
	return err
}

// patchInvitee writes a validated patch without touching the activity feed.
func (s *WeddingStore) patchInvitee(ctx context.Context, id string, patch models.InviteePatch) error {
	if err := s.backend.PatchInvitee(ctx, id, patch); err != nil {
		if errors.Is(err, database.ErrInviteeNotFound) {
			return ErrInviteeNotFound
		}
		return s.writeFailed(err, "Failed to update invitee", logrus.Fields{"id": id})
	}
	return nil
}

// DeleteInvitee removes an invitee permanently.
func (s *WeddingStore) DeleteInvitee(ctx context.Context, id string) error {
	inv, ok := s.inviteeByID(id)
	if !ok {
		return ErrInviteeNotFound
	}

	var saveErr error
	if err := s.backend.RemoveInvitee(ctx, id); err != nil {
		saveErr = s.writeFailed(err, "Failed to delete invitee", logrus.Fields{"id": id})
		if !errors.Is(saveErr, ErrNotPersisted) {
			return saveErr
		}
	}

	s.record(models.ActivityGuestDeleted, id, fmt.Sprintf("%s was removed from the guest list", inv.Name))
	return saveErr
}

// UpdateSettings applies the patch to the mirror immediately and then
// persists it. A backend failure is returned but the local change is kept;
// there is no rollback.
func (s *WeddingStore) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.WeddingSettings, error) {
	s.mu.Lock()
	s.settings = patch.Apply(s.settings)
	current := s.settings
	s.mu.Unlock()

	if patch.IsEmpty() {
		return current, nil
	}

	if err := s.backend.UpsertSettings(ctx, patch); err != nil {
		return current, s.writeFailed(err, "Failed to save settings", nil)
	}

	s.record(models.ActivitySettingsUpdated, "", "Wedding settings were updated")
	return current, nil
}

// SubmitRSVP records a guest's response by id or slug.
func (s *WeddingStore) SubmitRSVP(ctx context.Context, identifier string, sub Submission) (models.Invitee, error) {
	inv, ok := s.GetInvitee(identifier)
	if !ok {
		return models.Invitee{}, ErrInviteeNotFound
	}

	patch, err := ApplyRSVP(inv, sub)
	if err != nil {
		return inv, err
	}
	saveErr := s.patchInvitee(ctx, inv.ID, patch)
	if saveErr != nil && !errors.Is(saveErr, ErrNotPersisted) {
		return inv, saveErr
	}

	updated := patch.Apply(inv)
	s.record(models.ActivityRSVPSubmitted, inv.ID, fmt.Sprintf("%s replied %s", inv.Name, updated.Status()))

	if s.notifier != nil {
		settings := s.Settings()
		go func() {
			if err := s.notifier.NotifyRSVP(context.Background(), settings, updated); err != nil {
				utils.Logger.WithError(err).WithField("slug", updated.Slug).Warn("RSVP notification failed")
			}
		}()
	}
	return updated, saveErr
}

// Summary counts invitees per status. HeadCount sums guestCount over
// attending invitees.
func (s *WeddingStore) Summary() models.GuestSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum models.GuestSummary
	for _, inv := range s.invitees {
		sum.Total++
		if inv.Viewed {
			sum.Viewed++
		}
		switch inv.Status() {
		case models.RSVPAttending:
			sum.Attending++
			sum.HeadCount += inv.GuestCount
		case models.RSVPDeclined:
			sum.Declined++
		default:
			sum.Pending++
		}
	}
	return sum
}

// Activities returns up to limit recent entries, newest first.
func (s *WeddingStore) Activities(limit int) []models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.activities) {
		limit = len(s.activities)
	}
	out := make([]models.Activity, 0, limit)
	for i := len(s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.activities[i])
	}
	return out
}

// InviteURL is the public link for a slug.
func (s *WeddingStore) InviteURL(slug string) string {
	return s.appURL + "/" + slug
}

func (s *WeddingStore) inviteeByID(id string) (models.Invitee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitees {
		if inv.ID == id {
			return inv, true
		}
	}
	return models.Invitee{}, false
}

func (s *WeddingStore) record(kind models.ActivityType, inviteeID, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = append(s.activities, models.Activity{
		ID:          NewID(),
		Type:        kind,
		InviteeID:   inviteeID,
		Description: description,
		CreatedAt:   time.Now(),
	})
	if over := len(s.activities) - maxActivities; over > 0 {
		s.activities = append([]models.Activity(nil), s.activities[over:]...)
	}
}

func (s *WeddingStore) writeFailed(err error, message string, fields logrus.Fields) error {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["mode"] = s.backend.Mode()
	wrapped := utils.ErrorHandler(err, message, fields)
	if s.backend.Mode() == database.ModeLocal {
		return fmt.Errorf("%w: %w: %w", ErrBackendWrite, ErrNotPersisted, wrapped)
	}
	return fmt.Errorf("%w: %w", ErrBackendWrite, wrapped)
}

func validatePatch(p models.InviteePatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.RSVPStatus != nil && !p.RSVPStatus.Valid() {
		return fmt.Errorf("%w: unknown rsvp status %q", ErrInvalidPatch, *p.RSVPStatus)
	}
	if p.GuestCount != nil && *p.GuestCount < 0 {
		return fmt.Errorf("%w: guest count cannot be negative", ErrInvalidPatch)
	}
	return nil
}
