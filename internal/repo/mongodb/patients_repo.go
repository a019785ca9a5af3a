package mongodb

import (
	"context"

	"github.com/creciendojuntos/backoffice/internal/domain/account"
	"github.com/creciendojuntos/backoffice/internal/domain/patient"
	"github.com/creciendojuntos/backoffice/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PatientsRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewPatientsRepo(db *mongo.Database, prom *observability.Prom) *PatientsRepo {
	return &PatientsRepo{coll: db.Collection(account.CollectionPatients), prom: prom}
}

func (r *PatientsRepo) Insert(ctx context.Context, p *patient.Patient) error {
	return r.prom.ObserveStore("patients.insert", func() error {
		res, err := r.coll.InsertOne(ctx, p)
		if err != nil {
			return conflictFromWrite(err)
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			p.ID = id
		}
		return nil
	})
}

func (r *PatientsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (patient.Patient, error) {
	var p patient.Patient
	err := r.prom.ObserveStore("patients.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	})
	if err != nil {
		return patient.Patient{}, notFound(err)
	}
	return p, nil
}

func (r *PatientsRepo) GetByEmail(ctx context.Context, email string) (patient.Patient, error) {
	var p patient.Patient
	err := r.prom.ObserveStore("patients.get_by_email", func() error {
		return r.coll.FindOne(ctx, bson.M{account.FieldEmail: email}).Decode(&p)
	})
	if err != nil {
		return patient.Patient{}, notFound(err)
	}
	return p, nil
}

func (r *PatientsRepo) ExistsByField(ctx context.Context, field, value string, exclude primitive.ObjectID) (bool, error) {
	var n int64
	err := r.prom.ObserveStore("patients.exists", func() error {
		var err error
		n, err = r.coll.CountDocuments(ctx, existsFilter(field, value, exclude), options.Count().SetLimit(1))
		return err
	})
	return n > 0, err
}

func (r *PatientsRepo) Update(ctx context.Context, id primitive.ObjectID, c patient.Changes) (patient.Patient, error) {
	set := setter{"updatedAt": c.UpdatedAt}
	set.str("nombre", c.Nombre)
	set.str("apellidos", c.Apellidos)
	set.str(account.FieldEmail, c.Email)
	set.str("telefono", c.Telefono)
	set.opt("photoKey", c.PhotoKey, c.PhotoKeySet)
	if c.Activo != nil {
		set["activo"] = *c.Activo
	}

	var p patient.Patient
	err := r.prom.ObserveStore("patients.update", func() error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, set.doc(), opts).Decode(&p)
	})
	if err != nil {
		return patient.Patient{}, notFound(conflictFromWrite(err))
	}
	return p, nil
}

func (r *PatientsRepo) List(ctx context.Context, f account.ListFilter) ([]patient.Patient, error) {
	out := make([]patient.Patient, 0)
	err := r.prom.ObserveStore("patients.list", func() error {
		filter, opts := listQuery(f)
		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	return out, err
}

func (r *PatientsRepo) HasPhotoKey(ctx context.Context, key string) (bool, error) {
	return r.ExistsByField(ctx, "photoKey", key, primitive.NilObjectID)
}
