package accounts

import (
	"context"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UniqueChecker interface {
	ExistsByField(ctx context.Context, field, value string, exclude primitive.ObjectID) (bool, error)
}

// CheckUnique verifies, in the given order, that no record other than exclude
// already holds each value. The first collision wins. A zero exclude means
// the record does not exist yet.
//
// This is a pre-check: two concurrent writers can both pass it. The unique
// indexes in the store are what actually rejects the second write.
func CheckUnique(ctx context.Context, store UniqueChecker, exclude primitive.ObjectID, fields ...account.UniqueField) error {
	for _, f := range fields {
		if f.Value == "" {
			continue
		}

		taken, err := store.ExistsByField(ctx, f.Name, f.Value, exclude)
		if err != nil {
			return err
		}
		if taken {
			return f.Err
		}
	}
	return nil
}

// ParseID converts a path id into an ObjectID.
func ParseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, account.Invalid("id inválido")
	}
	return id, nil
}
