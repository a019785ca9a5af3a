package utils

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAccountCursorRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	cursor, err := EncodeAccountCursor(at, id)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	f, err := ListFilterFrom(20, cursor)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Limit != 20 || f.AfterID != id || !f.AfterCreatedAt.Equal(at) {
		t.Fatalf("unexpected filter: %+v", f)
	}
}

func TestListFilterFrom_Rejects(t *testing.T) {
	for _, cursor := range []string{"!!!", "e30", "eyJpZCI6Inh4eCIsImNyZWF0ZWRBdCI6IjIwMjUtMDEtMDFUMDA6MDA6MDBaIn0"} {
		if _, err := ListFilterFrom(10, cursor); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("cursor %q: expected ErrInvalidCursor, got %v", cursor, err)
		}
	}

	f, err := ListFilterFrom(0, "")
	if err != nil || !f.AfterID.IsZero() {
		t.Fatalf("empty cursor should start at the top: %+v %v", f, err)
	}
}
