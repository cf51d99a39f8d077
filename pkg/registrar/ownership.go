package registrar

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"context"

	"github.com/lanternhq/beacon/pkg/model"
)

// handleOwnership implements spec §4.D "Ownership{user, device}".
func (w *Worker) handleOwnership(ctx context.Context, payload model.Tagged) error {
	var job model.OwnershipJob
	if err := payload.Decode(&job); err != nil {
		return fmt.Errorf("decoding ownership job: %w", err)
	}

	user, err := w.users.FindOne(ctx, bson.M{"oid": job.UserID})
	if err != nil {
		return fmt.Errorf("loading user %s: %w", job.UserID, err)
	}
	diagnostic, err := w.diagnostics.FindOne(ctx, bson.M{"id": job.DeviceID})
	if err != nil {
		return fmt.Errorf("loading diagnostic %s: %w", job.DeviceID, err)
	}

	record, _, err := w.checkAccess(ctx, job.UserID, job.DeviceID)
	if err != nil {
		return fmt.Errorf("checking access: %w", err)
	}

	if user.Devices == nil {
		user.Devices = make(map[string]model.DeviceSnapshot)
	}
	user.Devices[job.DeviceID] = model.DeviceSnapshot{Nickname: diagnostic.Nickname}
	if err := w.users.Replace(ctx, bson.M{"oid": user.OID}, user, true); err != nil {
		return fmt.Errorf("replacing user: %w", err)
	}

	if record.AuthorityModel.Kind == model.AuthorityKindPublic {
		var a model.SharedOrPublicAuthority
		if err := record.AuthorityModel.Decode(&a); err != nil {
			return err
		}
		if !contains(a.Guests, job.UserID) {
			a.Guests = append(a.Guests, job.UserID)
			tagged, err := model.MarshalTagged(model.AuthorityKindPublic, a)
			if err != nil {
				return err
			}
			if err := w.authorities.Replace(ctx, bson.M{"device_id": job.DeviceID},
				model.DeviceAuthorityRecord{DeviceID: job.DeviceID, AuthorityModel: tagged}, false); err != nil {
				return fmt.Errorf("appending guest to public authority: %w", err)
			}
		}
	}

	owned, err := model.MarshalTagged(model.RegistrationKindOwned, model.OwnedRegistration{OriginalOwner: job.UserID})
	if err != nil {
		return err
	}
	if _, err := w.diagnostics.FindOneAndUpdateUpsert(ctx,
		bson.M{"id": job.DeviceID},
		bson.M{"$set": bson.M{"registration_state": owned}},
	); err != nil {
		return fmt.Errorf("setting diagnostic registration to owned: %w", err)
	}
	return nil
}

// handleOwnershipChange implements spec §4.D
// "OwnershipChange.SetPublicAvailability{device, to_public}".
func (w *Worker) handleOwnershipChange(ctx context.Context, payload model.Tagged) error {
	var job model.OwnershipChangeJob
	if err := payload.Decode(&job); err != nil {
		return fmt.Errorf("decoding ownership-change job: %w", err)
	}
	if job.Change.Kind != model.PublicAvailabilityChangeKindSet {
		return fmt.Errorf("unknown ownership-change kind %q", job.Change.Kind)
	}
	var change model.SetPublicAvailability
	if err := job.Change.Decode(&change); err != nil {
		return fmt.Errorf("decoding set-public-availability: %w", err)
	}

	record, err := w.authorities.FindOne(ctx, bson.M{"device_id": job.DeviceID})
	if err != nil {
		return fmt.Errorf("loading authority record: %w", err)
	}

	switch {
	case record.AuthorityModel.Kind == model.AuthorityKindExclusive && change.ToPublic:
		var a model.ExclusiveAuthority
		if err := record.AuthorityModel.Decode(&a); err != nil {
			return err
		}
		next, err := model.MarshalTagged(model.AuthorityKindPublic, model.SharedOrPublicAuthority{Owner: a.Owner, Guests: []string{}})
		if err != nil {
			return err
		}
		return w.authorities.Replace(ctx, bson.M{"device_id": job.DeviceID},
			model.DeviceAuthorityRecord{DeviceID: job.DeviceID, AuthorityModel: next}, false)

	case record.AuthorityModel.Kind == model.AuthorityKindPublic && !change.ToPublic:
		var a model.SharedOrPublicAuthority
		if err := record.AuthorityModel.Decode(&a); err != nil {
			return err
		}
		next, err := model.MarshalTagged(model.AuthorityKindShared, a)
		if err != nil {
			return err
		}
		return w.authorities.Replace(ctx, bson.M{"device_id": job.DeviceID},
			model.DeviceAuthorityRecord{DeviceID: job.DeviceID, AuthorityModel: next}, false)

	default:
		w.logger.Info("registrar: ignoring disallowed ownership-change transition",
			"device_id", job.DeviceID, "authority_kind", record.AuthorityModel.Kind, "to_public", change.ToPublic)
		return nil
	}
}

// handleRename implements spec §4.D "Rename{device, name}".
func (w *Worker) handleRename(ctx context.Context, payload model.Tagged) error {
	var job model.RenameJob
	if err := payload.Decode(&job); err != nil {
		return fmt.Errorf("decoding rename job: %w", err)
	}

	if _, err := w.diagnostics.FindOneAndUpdateUpsert(ctx,
		bson.M{"id": job.DeviceID},
		bson.M{"$set": bson.M{"nickname": job.NewName}},
	); err != nil {
		return fmt.Errorf("setting diagnostic nickname: %w", err)
	}

	field := fmt.Sprintf("devices.%s.nickname", job.DeviceID)
	if _, err := w.users.UpdateMany(ctx,
		bson.M{"devices." + job.DeviceID: bson.M{"$exists": true}},
		bson.M{"$set": bson.M{field: job.NewName}},
	); err != nil {
		return fmt.Errorf("bulk-updating device nickname on owning users: %w", err)
	}
	return nil
}
