package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/autoplan/pkg/api"
)

// MongoEventStore stores run events as documents, one per event.
type MongoEventStore struct {
	coll *mongo.Collection
}

var _ EventStore = (*MongoEventStore)(nil)

// NewMongoEventStore creates a Mongo-backed event store.
// dbName defaults to "autoplan" if empty, collName defaults to "run_events".
func NewMongoEventStore(client *mongo.Client, dbName, collName string) *MongoEventStore {
	if dbName == "" {
		dbName = "autoplan"
	}
	if collName == "" {
		collName = "run_events"
	}

	return &MongoEventStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoEventDoc struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	RunID  string             `bson:"run_id"`
	At     time.Time          `bson:"at"`
	Seq    int64              `bson:"seq"`
	Type   string             `bson:"type"`
	Plan   string             `bson:"plan"`
	Stage  int                `bson:"stage"`
	Entry  int                `bson:"entry"`
	Dur    int64              `bson:"duration_ns"`
	Detail string             `bson:"detail,omitempty"`
}

func (s *MongoEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	// BSON dates have millisecond precision; seq keeps the append order of
	// events recorded within the same millisecond.
	doc := mongoEventDoc{
		RunID:  ev.RunID,
		At:     at,
		Seq:    at.UnixNano(),
		Type:   string(ev.Type),
		Plan:   ev.Plan,
		Stage:  ev.Stage,
		Entry:  ev.Entry,
		Dur:    int64(ev.Duration),
		Detail: ev.Detail,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoEventStore) ListEvents(ctx context.Context, runID string) ([]api.RunEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []api.RunEvent
	for cur.Next(ctx) {
		var doc mongoEventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, api.RunEvent{
			RunID:    doc.RunID,
			At:       time.Unix(0, doc.Seq),
			Type:     api.EventType(doc.Type),
			Plan:     doc.Plan,
			Stage:    doc.Stage,
			Entry:    doc.Entry,
			Duration: time.Duration(doc.Dur),
			Detail:   doc.Detail,
		})
	}
	return out, cur.Err()
}
