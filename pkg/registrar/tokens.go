package registrar

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/rendering"
)

// tokenRefreshSweepLimit bounds the per-tick query to at most 10 users with a
// stored token handle (spec §4.D step 4).
const tokenRefreshSweepLimit = 10

// tokenRefreshSweep implements spec §4.D step 4: find users whose token
// handle is close to expiry, refresh against the external OAuth provider,
// and percolate a UserAccessTokenRefresh job to persist the new handle.
func (w *Worker) tokenRefreshSweep(ctx context.Context) error {
	users, err := w.users.Find(ctx,
		bson.M{"latest_token": bson.M{"$exists": true, "$ne": nil}},
		options.Find().SetLimit(tokenRefreshSweepLimit),
	)
	if err != nil {
		return fmt.Errorf("registrar: querying users with stored tokens: %w", err)
	}

	now := time.Now().UTC()
	for _, u := range users {
		if u.LatestToken == nil || !u.LatestToken.NeedsRefresh(now) {
			continue
		}
		if err := w.refreshUserToken(ctx, u); err != nil {
			w.logger.Error("registrar: token refresh failed for user, skipping", "user_id", u.OID, "error", err)
		}
	}
	return nil
}

func (w *Worker) refreshUserToken(ctx context.Context, u model.User) error {
	refreshToken, err := w.signer.UnwrapString(string(u.LatestToken.Token.RefreshToken))
	if err != nil {
		return fmt.Errorf("decoding wrapped refresh token: %w", err)
	}

	fresh, err := w.identity.RefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("calling external OAuth refresh: %w", err)
	}

	wrappedAccess, err := w.signer.WrapString(fresh.AccessToken, rendering.EnvelopeTTL)
	if err != nil {
		return fmt.Errorf("wrapping refreshed access token: %w", err)
	}
	wrappedRefresh := u.LatestToken.Token.RefreshToken
	if fresh.RefreshToken != "" {
		wrapped, err := w.signer.WrapString(fresh.RefreshToken, rendering.EnvelopeTTL)
		if err != nil {
			return fmt.Errorf("wrapping refreshed refresh token: %w", err)
		}
		wrappedRefresh = model.WrappedToken(wrapped)
	}

	handle := model.TokenHandle{
		Created: time.Now().UTC(),
		Token: model.TokenPayload{
			AccessToken:  model.WrappedToken(wrappedAccess),
			RefreshToken: model.WrappedToken(wrappedRefresh),
			ExpiresIn:    int(time.Until(fresh.Expiry).Seconds()),
		},
	}

	job, err := model.MarshalTagged(model.JobKindUserAccessTokenRefresh, model.UserAccessTokenRefreshJob{
		Handle: handle, UserID: u.OID,
	})
	if err != nil {
		return err
	}
	_, err = w.EnqueueJob(ctx, job)
	return err
}

// handleUserAccessTokenRefresh implements spec §4.D
// "UserAccessTokenRefresh{handle, user}".
func (w *Worker) handleUserAccessTokenRefresh(ctx context.Context, payload model.Tagged) error {
	var job model.UserAccessTokenRefreshJob
	if err := payload.Decode(&job); err != nil {
		return fmt.Errorf("decoding user-access-token-refresh job: %w", err)
	}
	if _, err := w.users.FindOneAndUpdateUpsert(ctx,
		bson.M{"oid": job.UserID},
		bson.M{"$set": bson.M{"latest_token": job.Handle}},
	); err != nil {
		return fmt.Errorf("persisting refreshed token handle: %w", err)
	}
	return nil
}
