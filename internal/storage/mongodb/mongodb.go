// Package mongodb implements storage.Storage on a MongoDB collection.
//
// Documents use the same keys as the HTTP form (roll_number, name, ...)
// plus createdAt/updatedAt timestamps, so existing collections written
// by earlier versions of the registration service can be read as is.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/search"
	"github.com/aanand-mishra/student-registry/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "students"

// document is the storage-mapping form of types.Student.
type document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	RollNumber string             `bson:"roll_number"`
	Name       string             `bson:"name"`
	FatherName string             `bson:"father_name"`
	Address    string             `bson:"address"`
	Age        int                `bson:"age"`
	Phone      string             `bson:"phone"`
	Email      string             `bson:"email"`

	FatherPhone        string   `bson:"father_phone,omitempty"`
	FatherEmail        string   `bson:"father_email,omitempty"`
	EamcetRank         *float64 `bson:"eamcet_rank,omitempty"`
	SSCMarks           *float64 `bson:"ssc_marks,omitempty"`
	InterMarks         *float64 `bson:"inter_marks,omitempty"`
	Achievements       string   `bson:"achievements,omitempty"`
	Remarks            string   `bson:"remarks,omitempty"`
	IdentificationMark string   `bson:"identification_mark,omitempty"`
	BloodGroup         string   `bson:"blood_group,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDocument(s types.Student) document {
	return document{
		RollNumber:         s.RollNumber,
		Name:               s.Name,
		FatherName:         s.FatherName,
		Address:            s.Address,
		Age:                s.Age,
		Phone:              s.Phone,
		Email:              s.Email,
		FatherPhone:        s.FatherPhone,
		FatherEmail:        s.FatherEmail,
		EamcetRank:         s.EamcetRank,
		SSCMarks:           s.SSCMarks,
		InterMarks:         s.InterMarks,
		Achievements:       s.Achievements,
		Remarks:            s.Remarks,
		IdentificationMark: s.IdentificationMark,
		BloodGroup:         s.BloodGroup,
	}
}

func (d document) student() types.Student {
	return types.Student{
		ID:                 d.ID.Hex(),
		RollNumber:         d.RollNumber,
		Name:               d.Name,
		FatherName:         d.FatherName,
		Address:            d.Address,
		Age:                d.Age,
		Phone:              d.Phone,
		Email:              d.Email,
		FatherPhone:        d.FatherPhone,
		FatherEmail:        d.FatherEmail,
		EamcetRank:         d.EamcetRank,
		SSCMarks:           d.SSCMarks,
		InterMarks:         d.InterMarks,
		Achievements:       d.Achievements,
		Remarks:            d.Remarks,
		IdentificationMark: d.IdentificationMark,
		BloodGroup:         d.BloodGroup,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// Mongo is a storage.Storage backed by one MongoDB collection.
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// New connects to cfg.Storage.URI and verifies the connection with a ping.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	timeout := cfg.Storage.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.Storage.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	return &Mongo{
		client:  client,
		coll:    client.Database(cfg.Storage.Database).Collection(collectionName),
		timeout: timeout,
	}, nil
}

// CreateStudent inserts one document and returns its ObjectID in hex.
func (m *Mongo) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	doc := toDocument(student)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc.UpdatedAt = doc.CreatedAt

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("CreateStudent: insert: %w", err)
	}

	return doc.ID.Hex(), nil
}

// SearchStudents runs the OR filter built from q. ObjectIDs start with a
// timestamp, so sorting by _id descending lists the newest first.
func (m *Mongo) SearchStudents(ctx context.Context, q search.Query) ([]types.Student, error) {
	filter, err := Filter(q)
	if err != nil {
		return nil, fmt.Errorf("SearchStudents: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cur, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("SearchStudents: find: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("SearchStudents: decode: %w", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.student())
	}

	return students, nil
}

// Filter translates a search query into a MongoDB filter document.
//
// Contains becomes a case-insensitive regex on the quoted text, so regex
// metacharacters typed into the search form match literally.
// NumberEquals trims the stored value and converts it to a double
// server-side; values that do not convert compare as null and never match.
func Filter(q search.Query) (bson.D, error) {
	if q.MatchAll() {
		return bson.D{}, nil
	}

	or := make(bson.A, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		switch c.Kind {
		case search.Contains:
			or = append(or, bson.D{{
				Key:   c.Field,
				Value: primitive.Regex{Pattern: regexp.QuoteMeta(c.Text), Options: "i"},
			}})
		case search.NumberEquals:
			trimmed := bson.D{{Key: "$trim", Value: bson.D{
				{Key: "input", Value: convert("$"+c.Field, "string")},
			}}}
			or = append(or, bson.D{{
				Key:   "$expr",
				Value: bson.D{{Key: "$eq", Value: bson.A{convert(trimmed, "double"), c.Number}}},
			}})
		default:
			return nil, fmt.Errorf("unknown condition kind %d", c.Kind)
		}
	}

	return bson.D{{Key: "$or", Value: or}}, nil
}

// convert is $convert with failures and nulls mapped to null.
func convert(input any, to string) bson.D {
	return bson.D{{Key: "$convert", Value: bson.D{
		{Key: "input", Value: input},
		{Key: "to", Value: to},
		{Key: "onError", Value: nil},
		{Key: "onNull", Value: nil},
	}}}
}

// EnsureIndexes creates an ascending, non-unique index per declared
// field. MongoDB treats re-creating an identical index as a no-op.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	models := make([]mongo.IndexModel, 0, len(types.StudentIndexes))
	for _, field := range types.StudentIndexes {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
	}

	if _, err := m.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("EnsureIndexes: %w", err)
	}

	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("mongodb.Close: %w", err)
	}
	return nil
}
