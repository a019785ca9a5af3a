package mongodb

import (
	"context"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/staff"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StaffRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewStaffRepo(db *mongo.Database, prom *observability.Prom) *StaffRepo {
	return &StaffRepo{coll: db.Collection(account.CollectionStaff), prom: prom}
}

func (r *StaffRepo) Insert(ctx context.Context, s *staff.Staff) error {
	return r.prom.ObserveStore("staff.insert", func() error {
		res, err := r.coll.InsertOne(ctx, s)
		if err != nil {
			return conflictFromWrite(err)
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			s.ID = id
		}
		return nil
	})
}

func (r *StaffRepo) GetByID(ctx context.Context, id primitive.ObjectID) (staff.Staff, error) {
	return r.findOne(ctx, "staff.get_by_id", bson.M{"_id": id})
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (staff.Staff, error) {
	return r.findOne(ctx, "staff.get_by_email", bson.M{account.FieldEmail: email})
}

func (r *StaffRepo) FindAdmin(ctx context.Context) (staff.Staff, error) {
	return r.findOne(ctx, "staff.find_admin", bson.M{"rol": staff.RoleAdmin})
}

func (r *StaffRepo) findOne(ctx context.Context, op string, filter bson.M) (staff.Staff, error) {
	var s staff.Staff
	err := r.prom.ObserveStore(op, func() error {
		return r.coll.FindOne(ctx, filter).Decode(&s)
	})
	if err != nil {
		return staff.Staff{}, notFound(err)
	}
	return s, nil
}

func (r *StaffRepo) ExistsByField(ctx context.Context, field, value string, exclude primitive.ObjectID) (bool, error) {
	var n int64
	err := r.prom.ObserveStore("staff.exists", func() error {
		var err error
		n, err = r.coll.CountDocuments(ctx, existsFilter(field, value, exclude), options.Count().SetLimit(1))
		return err
	})
	return n > 0, err
}

func (r *StaffRepo) Update(ctx context.Context, id primitive.ObjectID, c staff.Changes) (staff.Staff, error) {
	set := setter{"updatedAt": c.UpdatedAt}
	set.str("nombres", c.Nombres)
	set.str("apellidos", c.Apellidos)
	set.str(account.FieldEmail, c.Email)
	set.str("passwordHash", c.PasswordHash)
	set.str(account.FieldNombreUsuario, c.NombreUsuario)
	if c.FechaNacimiento != nil {
		set["fechaNacimiento"] = *c.FechaNacimiento
	}
	set.str("tipoDocumento", c.TipoDocumento)
	set.str(account.FieldNumeroDocumento, c.NumeroDocumento)
	set.str("sexo", c.Sexo)
	set.str("direccion", c.Direccion)
	set.str("numeroCelular", c.NumeroCelular)
	if c.Rol != nil {
		set["rol"] = *c.Rol
	}
	set.opt("photoKey", c.PhotoKey, c.PhotoKeySet)
	if c.Activo != nil {
		set["activo"] = *c.Activo
	}

	var s staff.Staff
	err := r.prom.ObserveStore("staff.update", func() error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, set.doc(), opts).Decode(&s)
	})
	if err != nil {
		return staff.Staff{}, notFound(conflictFromWrite(err))
	}
	return s, nil
}

func (r *StaffRepo) List(ctx context.Context, f account.ListFilter) ([]staff.Staff, error) {
	out := make([]staff.Staff, 0)
	err := r.prom.ObserveStore("staff.list", func() error {
		filter, opts := listQuery(f)
		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	return out, err
}

func (r *StaffRepo) HasPhotoKey(ctx context.Context, key string) (bool, error) {
	return r.ExistsByField(ctx, "photoKey", key, primitive.NilObjectID)
}
