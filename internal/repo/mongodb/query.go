package mongodb

import (
	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func existsFilter(field, value string, exclude primitive.ObjectID) bson.M {
	filter := bson.M{field: value}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	return filter
}

// listQuery pages newest first by (createdAt, _id), resuming strictly after
// the cursor position when one is given.
func listQuery(f account.ListFilter) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	if !f.AfterID.IsZero() {
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": f.AfterCreatedAt}},
			bson.M{"createdAt": f.AfterCreatedAt, "_id": bson.M{"$lt": f.AfterID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(f.EffectiveLimit())).
		SetProjection(bson.M{"passwordHash": 0})

	return filter, opts
}

// setter accumulates a $set document from optional fields.
type setter bson.M

func (s setter) str(field string, v *string) {
	if v != nil {
		s[field] = *v
	}
}

func (s setter) opt(field string, v interface{}, ok bool) {
	if ok {
		s[field] = v
	}
}

func (s setter) doc() bson.M {
	return bson.M{"$set": bson.M(s)}
}
