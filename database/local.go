package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"eternity-backend/models"
)

const (
	KeySettings = "eternity_settings"
	KeyInvitees = "eternity_invitees"
)

// LocalBackend keeps the whole state in memory and rewrites the matching
// key-value entry after every mutation. It is the only writer of its entries,
// so listeners are notified synchronously from the mutating call.
type LocalBackend struct {
	kv KeyValue

	mu       sync.Mutex
	notifyMu sync.Mutex
	settings models.WeddingSettings
	invitees []models.Invitee

	nextSub          int
	settingsHandlers map[int]SettingsListener
	inviteeHandlers  map[int]InviteesListener
}

// NewLocalBackend reads both entries. A missing settings entry is seeded with
// the defaults and written back immediately.
func NewLocalBackend(ctx context.Context, kv KeyValue) (*LocalBackend, error) {
	b := &LocalBackend{
		kv:               kv,
		settings:         models.DefaultSettings(),
		invitees:         make([]models.Invitee, 0),
		settingsHandlers: map[int]SettingsListener{},
		inviteeHandlers:  map[int]InviteesListener{},
	}

	raw, found, err := kv.Get(ctx, KeySettings)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if found && len(raw) > 0 {
		if err := json.Unmarshal(raw, &b.settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	} else if err := b.saveSettings(ctx); err != nil {
		return nil, err
	}

	raw, found, err = kv.Get(ctx, KeyInvitees)
	if err != nil {
		return nil, fmt.Errorf("failed to load invitees: %w", err)
	}
	if found && len(raw) > 0 {
		if err := json.Unmarshal(raw, &b.invitees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal invitees: %w", err)
		}
	}
	return b, nil
}

func (b *LocalBackend) Mode() Mode { return ModeLocal }

func (b *LocalBackend) SubscribeSettings(_ context.Context, fn SettingsListener) (Unsubscribe, error) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.settingsHandlers[id] = fn
	current := b.settings
	b.notifyMu.Lock()
	b.mu.Unlock()

	fn(current, true)
	b.notifyMu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.settingsHandlers, id)
		b.mu.Unlock()
	}, nil
}

func (b *LocalBackend) SubscribeInvitees(_ context.Context, fn InviteesListener) (Unsubscribe, error) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.inviteeHandlers[id] = fn
	snapshot := b.sortedInvitees()
	b.notifyMu.Lock()
	b.mu.Unlock()

	fn(snapshot)
	b.notifyMu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.inviteeHandlers, id)
		b.mu.Unlock()
	}, nil
}

func (b *LocalBackend) UpsertSettings(ctx context.Context, patch models.SettingsPatch) error {
	b.mu.Lock()
	b.settings = patch.Apply(b.settings)
	err := b.saveSettings(ctx)
	b.publishSettings()
	return err
}

func (b *LocalBackend) UpsertInvitee(ctx context.Context, inv models.Invitee) error {
	return b.BatchUpsertInvitees(ctx, []models.Invitee{inv})
}

// BatchUpsertInvitees replaces records with a known id in place and prepends
// new ones, newest first.
func (b *LocalBackend) BatchUpsertInvitees(ctx context.Context, invs []models.Invitee) error {
	b.mu.Lock()
	index := make(map[string]int, len(b.invitees))
	for i, inv := range b.invitees {
		index[inv.ID] = i
	}

	fresh := make([]models.Invitee, 0, len(invs))
	for _, inv := range invs {
		if i, ok := index[inv.ID]; ok {
			b.invitees[i] = inv
			continue
		}
		fresh = append(fresh, inv)
	}
	b.invitees = append(fresh, b.invitees...)

	err := b.saveInvitees(ctx)
	b.publishInvitees()
	return err
}

func (b *LocalBackend) PatchInvitee(ctx context.Context, id string, patch models.InviteePatch) error {
	b.mu.Lock()
	pos := -1
	for i, inv := range b.invitees {
		if inv.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		b.mu.Unlock()
		return ErrInviteeNotFound
	}
	if patch.IsEmpty() {
		b.mu.Unlock()
		return nil
	}

	b.invitees[pos] = patch.Apply(b.invitees[pos])
	err := b.saveInvitees(ctx)
	b.publishInvitees()
	return err
}

func (b *LocalBackend) RemoveInvitee(ctx context.Context, id string) error {
	b.mu.Lock()
	kept := b.invitees[:0:0]
	for _, inv := range b.invitees {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	if len(kept) == len(b.invitees) {
		b.mu.Unlock()
		return nil
	}
	b.invitees = kept

	err := b.saveInvitees(ctx)
	b.publishInvitees()
	return err
}

func (b *LocalBackend) Close() error {
	return b.kv.Close()
}

func (b *LocalBackend) saveSettings(ctx context.Context) error {
	data, err := json.Marshal(b.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return b.kv.Set(ctx, KeySettings, data)
}

func (b *LocalBackend) saveInvitees(ctx context.Context) error {
	data, err := json.Marshal(b.invitees)
	if err != nil {
		return fmt.Errorf("failed to marshal invitees: %w", err)
	}
	return b.kv.Set(ctx, KeyInvitees, data)
}

// publishSettings must be called with mu held; it releases mu. notifyMu is
// taken before mu is dropped so listeners see snapshots in write order.
func (b *LocalBackend) publishSettings() {
	current := b.settings
	handlers := make([]SettingsListener, 0, len(b.settingsHandlers))
	for _, fn := range b.settingsHandlers {
		handlers = append(handlers, fn)
	}
	b.notifyMu.Lock()
	b.mu.Unlock()
	defer b.notifyMu.Unlock()

	for _, fn := range handlers {
		fn(current, true)
	}
}

// publishInvitees follows the same locking contract as publishSettings.
func (b *LocalBackend) publishInvitees() {
	handlers := make([]InviteesListener, 0, len(b.inviteeHandlers))
	for _, fn := range b.inviteeHandlers {
		handlers = append(handlers, fn)
	}
	snapshot := b.sortedInvitees()
	b.notifyMu.Lock()
	b.mu.Unlock()
	defer b.notifyMu.Unlock()

	for _, fn := range handlers {
		fn(snapshot)
	}
}

func (b *LocalBackend) sortedInvitees() []models.Invitee {
	out := make([]models.Invitee, len(b.invitees))
	copy(out, b.invitees)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
