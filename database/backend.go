package database

import (
	"context"
	"errors"

	"eternity-backend/config"
	"eternity-backend/models"
	"eternity-backend/utils"

	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

var ErrInviteeNotFound = errors.New("invitee not found")

// Unsubscribe stops a listener. It blocks until no further callback will run.
type Unsubscribe func()

// SettingsListener receives the full settings document. exists is false when
// the singleton has not been created yet.
type SettingsListener func(settings models.WeddingSettings, exists bool)

// InviteesListener receives the full invitee collection ordered by name.
type InviteesListener func(invitees []models.Invitee)

// Backend is the durable state holder behind the wedding store. Listeners are
// called with full snapshots and must not call back into the backend
// synchronously.
type Backend interface {
	Mode() Mode
	SubscribeSettings(ctx context.Context, fn SettingsListener) (Unsubscribe, error)
	SubscribeInvitees(ctx context.Context, fn InviteesListener) (Unsubscribe, error)
	UpsertSettings(ctx context.Context, patch models.SettingsPatch) error
	UpsertInvitee(ctx context.Context, inv models.Invitee) error
	BatchUpsertInvitees(ctx context.Context, invs []models.Invitee) error
	PatchInvitee(ctx context.Context, id string, patch models.InviteePatch) error
	RemoveInvitee(ctx context.Context, id string) error
	Close() error
}

// Open selects the backend from configuration: Firestore when credentials
// are present, otherwise a local key-value store.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	if cfg.CloudEnabled() {
		backend, err := NewFirestoreBackend(ctx, cfg.FirebaseCredPath, cfg.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		utils.Logger.Info("☁️  Wedding store running in cloud mode (Firestore)")
		return backend, nil
	}

	kv := openKeyValue(ctx, cfg)
	backend, err := NewLocalBackend(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}
	utils.Logger.WithField("store", cfg.LocalStore).Warn("⚠️  Wedding store running in local demo mode, changes stay on this server")
	return backend, nil
}

// openKeyValue picks the local store. Postgres and Redis degrade to the file
// store when unreachable.
func openKeyValue(ctx context.Context, cfg *config.Config) KeyValue {
	switch cfg.LocalStore {
	case "postgres":
		kv, err := NewPostgresKV(cfg.DatabaseURL)
		if err == nil {
			utils.Logger.Info("✅ Postgres key-value store connected")
			return kv
		}
		utils.Logger.WithError(err).Warn("Postgres not available, falling back to file store")
	case "redis":
		kv, err := NewRedisKV(ctx, cfg.RedisURL)
		if err == nil {
			utils.Logger.Info("✅ Redis key-value store connected")
			return kv
		}
		utils.Logger.WithError(err).Warn("Redis not available, falling back to file store")
	case "", "file":
	default:
		utils.Logger.WithFields(logrus.Fields{"store": cfg.LocalStore}).Warn("Unknown LOCAL_STORE, using file store")
	}
	return NewFileKV(cfg.LocalDataDir)
}
