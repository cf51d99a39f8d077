package registrar

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/pkg/model"
)

// AccessLevel is the grant a successful access check returns (spec §4.D:
// "Return the authority record plus an AccessLevel::All marker, or none.").
// beacon's authority model has exactly one positive grant level.
type AccessLevel string

// AccessLevelAll is the sole positive AccessLevel (spec names no finer grain).
const AccessLevelAll AccessLevel = "all"

// checkAccess upserts the device's authority record (creating Exclusive(u)
// if absent), then evaluates whether u may control it (spec §4.D "Access
// check").
func (w *Worker) checkAccess(ctx context.Context, userID, deviceID string) (model.DeviceAuthorityRecord, AccessLevel, error) {
	exclusive, err := model.MarshalTagged(model.AuthorityKindExclusive, model.ExclusiveAuthority{Owner: userID})
	if err != nil {
		return model.DeviceAuthorityRecord{}, "", err
	}

	record, err := w.authorities.FindOneAndUpdateUpsert(ctx,
		bson.M{"device_id": deviceID},
		bson.M{"$setOnInsert": bson.M{"device_id": deviceID, "authority_model": exclusive}},
	)
	if err != nil {
		return model.DeviceAuthorityRecord{}, "", fmt.Errorf("upserting authority record: %w", err)
	}

	switch record.AuthorityModel.Kind {
	case model.AuthorityKindExclusive:
		var a model.ExclusiveAuthority
		if err := record.AuthorityModel.Decode(&a); err != nil {
			return record, "", err
		}
		if a.Owner == userID {
			return record, AccessLevelAll, nil
		}
		return record, "", nil

	case model.AuthorityKindShared:
		var a model.SharedOrPublicAuthority
		if err := record.AuthorityModel.Decode(&a); err != nil {
			return record, "", err
		}
		if a.Owner == userID || contains(a.Guests, userID) {
			return record, AccessLevelAll, nil
		}
		return record, "", nil

	case model.AuthorityKindPublic:
		return record, AccessLevelAll, nil

	default:
		return record, "", fmt.Errorf("unknown authority kind %q", record.AuthorityModel.Kind)
	}
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
