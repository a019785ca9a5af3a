package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client and pings the primary before returning it.
func Connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)

	if err != nil {
		return nil, err
	}

	err = client.Ping(ctx, nil)

	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// Health exposes the client to readiness probes.
type Health struct {
	Client *mongo.Client
}

func (h Health) Ping(ctx context.Context) error {
	return h.Client.Ping(ctx, readpref.Primary())
}

const (
	indexEmail     = "uniq_email"
	indexUsername  = "uniq_nombreUsuario"
	indexDocument  = "uniq_numeroDocumento"
	indexCreatedAt = "createdAt_desc"
	indexPhotoKey  = "photoKey"
)

// EnsureIndexes declares the unique indexes that are the source of truth for
// field uniqueness. The service-level pre-check only gives nicer errors.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(field, name string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetName(name).SetUnique(true),
		}
	}
	plain := func(keys bson.D, name string) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
	}

	_, err := db.Collection(account.CollectionPatients).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(account.FieldEmail, indexEmail),
		plain(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, indexCreatedAt),
		plain(bson.D{{Key: "photoKey", Value: 1}}, indexPhotoKey),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(account.CollectionStaff).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(account.FieldEmail, indexEmail),
		unique(account.FieldNombreUsuario, indexUsername),
		unique(account.FieldNumeroDocumento, indexDocument),
		plain(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, indexCreatedAt),
		plain(bson.D{{Key: "photoKey", Value: 1}}, indexPhotoKey),
	})
	return err
}

// conflictFromWrite turns a duplicate key failure into the conflict error of
// the field whose index rejected the write. Other errors pass through.
func conflictFromWrite(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, indexUsername):
		return account.ErrUsernameTaken
	case strings.Contains(msg, indexDocument):
		return account.ErrDocumentTaken
	default:
		return account.ErrEmailTaken
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return account.ErrNotFound
	}
	return err
}
