package storage

import (
	"errors"
	"path"
	"strings"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid object key")

// PhotoKey names a new profile photo object:
// {realm}/{accountID}/photos/{uuid}-{filename}. realm is the collection the
// account lives in. Only the base name of filename is kept.
func PhotoKey(realm, accountID, filename string) (string, error) {
	if realm != account.CollectionPatients && realm != account.CollectionStaff {
		return "", ErrInvalidKey
	}

	accountID = strings.TrimSpace(accountID)
	if accountID == "" || strings.ContainsAny(accountID, "/\\") {
		return "", ErrInvalidKey
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" || name == ".." {
		return "", ErrInvalidKey
	}

	return realm + "/" + accountID + "/photos/" + uuid.NewString() + "-" + name, nil
}

// ValidKey rejects keys a client should never be able to presign: empty,
// absolute, or escaping with "..".
func ValidKey(key string) bool {
	if key == "" || len(key) > 1024 || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "" {
			return false
		}
	}
	return true
}
