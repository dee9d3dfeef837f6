package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eternity-backend/models"
	"eternity-backend/utils"
)

const (
	settingsCollection = "general"
	settingsDoc        = "settings"
	inviteesCollection = "invitees"
)

// FirestoreBackend is the real-time remote store. Settings live in
// general/settings, invitees in the invitees collection keyed by id.
type FirestoreBackend struct {
	client *firestore.Client
}

func NewFirestoreBackend(ctx context.Context, credPath, projectID string) (*FirestoreBackend, error) {
	var opts []option.ClientOption
	if credPath != "" {
		if _, err := os.Stat(credPath); err == nil {
			opts = append(opts, option.WithCredentialsFile(credPath))
		}
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreBackend{client: client}, nil
}

func (b *FirestoreBackend) Mode() Mode { return ModeRemote }

func (b *FirestoreBackend) settingsRef() *firestore.DocumentRef {
	return b.client.Collection(settingsCollection).Doc(settingsDoc)
}

func (b *FirestoreBackend) inviteeRef(id string) *firestore.DocumentRef {
	return b.client.Collection(inviteesCollection).Doc(id)
}

func (b *FirestoreBackend) SubscribeSettings(ctx context.Context, fn SettingsListener) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := b.settingsRef().Snapshots(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
					utils.Logger.WithError(err).Error("Firestore settings listener failed")
				}
				return
			}
			if !snap.Exists() {
				fn(models.WeddingSettings{}, false)
				continue
			}
			var settings models.WeddingSettings
			if err := snap.DataTo(&settings); err != nil {
				utils.Logger.WithError(err).Error("Failed to decode settings snapshot")
				continue
			}
			fn(settings, true)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (b *FirestoreBackend) SubscribeInvitees(ctx context.Context, fn InviteesListener) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := b.client.Collection(inviteesCollection).OrderBy("name", firestore.Asc).Snapshots(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
					utils.Logger.WithError(err).Error("Firestore invitees listener failed")
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				utils.Logger.WithError(err).Error("Failed to read invitees snapshot")
				continue
			}
			invitees := make([]models.Invitee, 0, len(docs))
			for _, doc := range docs {
				var inv models.Invitee
				if err := doc.DataTo(&inv); err != nil {
					utils.Logger.WithError(err).WithField("doc", doc.Ref.ID).Warn("Skipping malformed invitee document")
					continue
				}
				if inv.ID == "" {
					inv.ID = doc.Ref.ID
				}
				invitees = append(invitees, inv)
			}
			fn(invitees)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// UpsertSettings merges the patch into the singleton, creating it if absent.
func (b *FirestoreBackend) UpsertSettings(ctx context.Context, patch models.SettingsPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	if _, err := b.settingsRef().Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (b *FirestoreBackend) UpsertInvitee(ctx context.Context, inv models.Invitee) error {
	if _, err := b.inviteeRef(inv.ID).Set(ctx, inv); err != nil {
		return fmt.Errorf("failed to save invitee %s: %w", inv.ID, err)
	}
	return nil
}

// BatchUpsertInvitees commits every record in a single transaction so the
// batch either fully applies or not at all.
func (b *FirestoreBackend) BatchUpsertInvitees(ctx context.Context, invs []models.Invitee) error {
	if len(invs) == 0 {
		return nil
	}

	err := b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, inv := range invs {
			if err := tx.Set(b.inviteeRef(inv.ID), inv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit invitee batch: %w", err)
	}
	return nil
}

// PatchInvitee updates only the named fields. An empty patch writes nothing.
func (b *FirestoreBackend) PatchInvitee(ctx context.Context, id string, patch models.InviteePatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := b.inviteeRef(id).Update(ctx, updates); err != nil {
		return patchError(id, err)
	}
	return nil
}

// patchError maps a missing document to ErrInviteeNotFound. Update fails
// with NotFound when the invitee was deleted in the meantime.
func patchError(id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrInviteeNotFound
	}
	return fmt.Errorf("failed to update invitee %s: %w", id, err)
}

func (b *FirestoreBackend) RemoveInvitee(ctx context.Context, id string) error {
	if _, err := b.inviteeRef(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete invitee %s: %w", id, err)
	}
	return nil
}

func (b *FirestoreBackend) Close() error {
	return b.client.Close()
}
