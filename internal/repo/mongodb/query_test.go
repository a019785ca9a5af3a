package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestExistsFilter(t *testing.T) {
	f := existsFilter(account.FieldEmail, "ana@x.com", primitive.NilObjectID)
	if _, ok := f["_id"]; ok {
		t.Fatalf("create path must not carry an exclusion clause: %v", f)
	}

	id := primitive.NewObjectID()
	f = existsFilter(account.FieldEmail, "ana@x.com", id)
	ne, ok := f["_id"].(bson.M)
	if !ok || ne["$ne"] != id {
		t.Fatalf("update path must exclude the target id: %v", f)
	}
}

func TestListQuery_Cursor(t *testing.T) {
	filter, opts := listQuery(account.ListFilter{})
	if len(filter) != 0 {
		t.Fatalf("first page should be unfiltered, got %v", filter)
	}
	if opts.Limit == nil || *opts.Limit != int64(account.DefaultListLimit) {
		t.Fatalf("default limit not applied")
	}

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	filter, opts = listQuery(account.ListFilter{Limit: 1000, AfterCreatedAt: at, AfterID: primitive.NewObjectID()})
	if _, ok := filter["$or"]; !ok {
		t.Fatalf("cursor page should use $or, got %v", filter)
	}
	if *opts.Limit != int64(account.MaxListLimit) {
		t.Fatalf("limit should be capped, got %d", *opts.Limit)
	}
}

func TestConflictFromWrite(t *testing.T) {
	dup := func(index string) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: db.usersWork index: " + index + " dup key",
		}}}
	}

	cases := map[string]error{
		indexEmail:    account.ErrEmailTaken,
		indexUsername: account.ErrUsernameTaken,
		indexDocument: account.ErrDocumentTaken,
	}
	for index, want := range cases {
		if got := conflictFromWrite(dup(index)); !errors.Is(got, want) {
			t.Fatalf("index %s: got %v want %v", index, got, want)
		}
	}

	other := errors.New("boom")
	if conflictFromWrite(other) != other {
		t.Fatalf("non duplicate errors should pass through")
	}
	if !errors.Is(notFound(mongo.ErrNoDocuments), account.ErrNotFound) {
		t.Fatalf("ErrNoDocuments should map to ErrNotFound")
	}
}

func TestSetter(t *testing.T) {
	name := "Ana"
	s := setter{}
	s.str("nombre", &name)
	s.str("apellidos", nil)
	s.opt("photoKey", (*string)(nil), true)

	doc := s.doc()["$set"].(bson.M)
	if doc["nombre"] != "Ana" {
		t.Fatalf("nombre not set: %v", doc)
	}
	if _, ok := doc["apellidos"]; ok {
		t.Fatalf("nil field should be skipped")
	}
	if _, ok := doc["photoKey"]; !ok {
		t.Fatalf("explicit clear should write photoKey")
	}
}
