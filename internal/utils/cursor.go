package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// AccountCursor points just past the last row of a page in createdAt desc,
// _id desc order. Both realms page the same way.
type AccountCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func EncodeAccountCursor(createdAt time.Time, id primitive.ObjectID) (string, error) {
	b, err := json.Marshal(AccountCursor{CreatedAt: createdAt.UTC(), ID: id.Hex()})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeAccountCursor(cursor string) (AccountCursor, error) {
	if cursor == "" {
		return AccountCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return AccountCursor{}, ErrInvalidCursor
	}

	var c AccountCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return AccountCursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return AccountCursor{}, ErrInvalidCursor
	}
	return c, nil
}

// ListFilterFrom builds a page request from query values. An empty cursor
// means the first page.
func ListFilterFrom(limit int, cursor string) (account.ListFilter, error) {
	f := account.ListFilter{Limit: limit}
	if cursor == "" {
		return f, nil
	}

	c, err := DecodeAccountCursor(cursor)
	if err != nil {
		return account.ListFilter{}, err
	}

	id, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return account.ListFilter{}, ErrInvalidCursor
	}

	f.AfterCreatedAt = c.CreatedAt
	f.AfterID = id
	return f, nil
}
