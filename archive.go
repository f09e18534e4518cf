package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type SlowlogDocument struct {
	SlowlogID      int64         `bson:"slowlogId" json:"slowlogId"`
	Timestamp      bson.DateTime `bson:"timestamp" json:"timestamp"`
	DurationMicros int64         `bson:"durationMicros" json:"durationMicros"`
	Command        []string      `bson:"command" json:"command"`
	Address        string        `bson:"address" json:"address"`
	ClientName     string        `bson:"clientName" json:"clientName"`
	RunID          string        `bson:"runId" json:"runId"`
	ServerVersion  string        `bson:"serverVersion" json:"serverVersion"`
}

type documentInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// MongoArchive copies every reported entry into a MongoDB collection. It is
// an export only; the seen registry is never rebuilt from it.
type MongoArchive struct {
	client        *mongo.Client
	coll          documentInserter
	runID         string
	serverVersion string
}

func NewMongoArchive(ctx context.Context, uri, dbName, collName, runID string, version *Version) (*MongoArchive, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach archive: %w", err)
	}
	coll := client.Database(dbName).Collection(collName)
	if err := CreateIndex(ctx, coll, bson.D{
		{Key: "runId", Value: 1},
		{Key: "slowlogId", Value: 1},
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	a := newMongoArchive(coll, runID, version)
	a.client = client
	return a, nil
}

func newMongoArchive(coll documentInserter, runID string, version *Version) *MongoArchive {
	serverVersion := "unknown"
	if version != nil {
		serverVersion = version.String()
	}
	return &MongoArchive{coll: coll, runID: runID, serverVersion: serverVersion}
}

func CreateIndex(ctx context.Context, coll *mongo.Collection, keys bson.D) error {
	indexCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ixName, err := coll.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys: keys,
	})
	if err != nil {
		return fmt.Errorf("failed to create index on %s: %w", coll.Name(), err)
	}
	Logger.
		WithField("coll", coll.Name()).
		WithField("ixName", ixName).
		Info("Archive index created")
	return nil
}

func (a *MongoArchive) Document(entry SlowlogEntry, at time.Time) SlowlogDocument {
	return SlowlogDocument{
		SlowlogID:      int64(entry.ID),
		Timestamp:      bson.NewDateTimeFromTime(at),
		DurationMicros: entry.Duration.Microseconds(),
		Command:        entry.Command,
		Address:        entry.Address,
		ClientName:     entry.ClientName,
		RunID:          a.runID,
		ServerVersion:  a.serverVersion,
	}
}

func (a *MongoArchive) Emit(ctx context.Context, entry SlowlogEntry, at time.Time) error {
	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := a.coll.InsertOne(insertCtx, a.Document(entry, at)); err != nil {
		return fmt.Errorf("failed to archive slowlog entry %d: %w", entry.ID, err)
	}
	Logger.WithFields(logrus.Fields{"slowlogId": entry.ID}).Debug("Slowlog entry archived")
	return nil
}

func (a *MongoArchive) Close() error {
	if a.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.client.Disconnect(ctx)
}
