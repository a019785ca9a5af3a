package uploads

import (
	"context"
	"log/slog"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/storage"
)

type ObjectChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Confirmer gates photo key writes: the object must already be in the
// bucket. The key leaves the pending set only after the account write.
type Confirmer struct {
	objects  ObjectChecker
	registry *Registry
	log      *slog.Logger
}

func NewConfirmer(objects ObjectChecker, registry *Registry, log *slog.Logger) *Confirmer {
	if log == nil {
		log = slog.Default()
	}
	return &Confirmer{objects: objects, registry: registry, log: log}
}

func (c *Confirmer) Verify(ctx context.Context, key string) error {
	if !storage.ValidKey(key) {
		return account.Invalid("photoKey inválido")
	}

	ok, err := c.objects.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return account.Invalid("la foto no existe en el almacenamiento")
	}
	return nil
}

// Settle drops key from the pending set. The sweeper re-checks references
// before deleting, so a failure here only delays cleanup.
func (c *Confirmer) Settle(ctx context.Context, key string) {
	if err := c.registry.Confirm(ctx, key); err != nil {
		c.log.WarnContext(ctx, "upload registry confirm failed", "key", key, "err", err)
	}
}
