package accounts

import (
	"context"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
)

// PhotoConfirmer is consulted around a photo key write. Verify runs before
// the write and fails when the object was never uploaded. Settle runs only
// once the account write has succeeded, so a failed write leaves the upload
// pending for the sweeper.
type PhotoConfirmer interface {
	Verify(ctx context.Context, key string) error
	Settle(ctx context.Context, key string)
}

// resolvePhoto turns an optional photo field into a write: (set, value, err).
// An explicit null or empty string clears the reference without any storage
// round trip.
func resolvePhoto(ctx context.Context, confirmer PhotoConfirmer, field account.OptionalString) (bool, *string, error) {
	if !field.Set {
		return false, nil, nil
	}
	if field.Cleared() {
		return true, nil, nil
	}

	if confirmer != nil {
		if err := confirmer.Verify(ctx, *field.Value); err != nil {
			return false, nil, err
		}
	}
	return true, account.StringPtr(*field.Value), nil
}

func photoOnCreate(ctx context.Context, confirmer PhotoConfirmer, key *string) (*string, error) {
	if key == nil {
		return nil, nil
	}
	_, v, err := resolvePhoto(ctx, confirmer, account.OptionalString{Set: true, Value: key})
	return v, err
}

func settlePhoto(ctx context.Context, confirmer PhotoConfirmer, key *string) {
	if confirmer != nil && key != nil {
		confirmer.Settle(ctx, *key)
	}
}
