package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/biferdou/grallix/internal/model"
)

// Collection names match the ones the bot has always used in MongoDB.
const (
	mongoTasks    = "tasks"
	mongoTimeLogs = "timelogs"
	mongoStandups = "standups"
	mongoSettings = "channelsettings"
)

// connectTimeout bounds the initial connect and ping.
const connectTimeout = 15 * time.Second

// MongoStore implements Store on a MongoDB database.
//
// A write stages the new collection under a temporary name and renames it
// over the live one, so readers see the old or the new collection and
// never a partial one. Channel settings are upserted per channel.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// channelSettingDoc is one document of the channelsettings collection.
type channelSettingDoc struct {
	ChannelID            string `bson:"channelId"`
	StandupEnabled       bool   `bson:"standupEnabled"`
	WeeklySummaryEnabled bool   `bson:"weeklySummaryEnabled"`
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}

	_, err = s.db.Collection(mongoSettings).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "channelId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating channelsettings index: %w", err)
	}

	return s, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ReadTasks returns all tasks in insertion order.
func (s *MongoStore) ReadTasks(ctx context.Context) (TaskData, error) {
	var data TaskData
	if err := s.findAll(ctx, mongoTasks, &data.Tasks); err != nil {
		return TaskData{}, err
	}
	data.normalize()
	return data, nil
}

// WriteTasks replaces the tasks collection.
func (s *MongoStore) WriteTasks(ctx context.Context, data TaskData) error {
	docs := make([]any, len(data.Tasks))
	for i, t := range data.Tasks {
		docs[i] = t
	}
	return s.replace(ctx, mongoTasks, docs)
}

// ReadTimeLogs returns all time logs in insertion order.
func (s *MongoStore) ReadTimeLogs(ctx context.Context) (TimeLogData, error) {
	var data TimeLogData
	if err := s.findAll(ctx, mongoTimeLogs, &data.Logs); err != nil {
		return TimeLogData{}, err
	}
	data.normalize()
	return data, nil
}

// WriteTimeLogs replaces the timelogs collection.
func (s *MongoStore) WriteTimeLogs(ctx context.Context, data TimeLogData) error {
	docs := make([]any, len(data.Logs))
	for i, l := range data.Logs {
		docs[i] = l
	}
	return s.replace(ctx, mongoTimeLogs, docs)
}

// ReadStandups returns all standups in insertion order.
func (s *MongoStore) ReadStandups(ctx context.Context) (StandupData, error) {
	var data StandupData
	if err := s.findAll(ctx, mongoStandups, &data.Standups); err != nil {
		return StandupData{}, err
	}
	data.normalize()
	return data, nil
}

// WriteStandups replaces the standups collection.
func (s *MongoStore) WriteStandups(ctx context.Context, data StandupData) error {
	data.normalize()
	docs := make([]any, len(data.Standups))
	for i, st := range data.Standups {
		docs[i] = st
	}
	return s.replace(ctx, mongoStandups, docs)
}

// ReadSettings folds the per-channel documents into one Settings value.
func (s *MongoStore) ReadSettings(ctx context.Context) (model.Settings, error) {
	var docs []channelSettingDoc
	if err := s.findAll(ctx, mongoSettings, &docs); err != nil {
		return model.Settings{}, err
	}

	settings := model.Settings{Channels: make(map[string]model.ChannelSettings, len(docs))}
	for _, d := range docs {
		settings.Channels[d.ChannelID] = model.ChannelSettings{
			StandupEnabled:       d.StandupEnabled,
			WeeklySummaryEnabled: d.WeeklySummaryEnabled,
		}
	}
	return settings, nil
}

// WriteSettings upserts one document per channel. Settings are never
// deleted, so channels missing from data are left untouched.
func (s *MongoStore) WriteSettings(ctx context.Context, data model.Settings) error {
	if len(data.Channels) == 0 {
		return nil
	}

	ops := make([]mongo.WriteModel, 0, len(data.Channels))
	for channelID, cs := range data.Channels {
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"channelId": channelID}).
			SetUpdate(bson.M{"$set": bson.M{
				"standupEnabled":       cs.StandupEnabled,
				"weeklySummaryEnabled": cs.WeeklySummaryEnabled,
			}}).
			SetUpsert(true))
	}

	if _, err := s.db.Collection(mongoSettings).BulkWrite(ctx, ops); err != nil {
		return fmt.Errorf("writing channel settings: %w", err)
	}
	return nil
}

// findAll decodes every document of name, ordered by _id (insertion order).
func (s *MongoStore) findAll(ctx context.Context, name string, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(name).Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("querying %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// replace swaps the contents of collection name for docs.
func (s *MongoStore) replace(ctx context.Context, name string, docs []any) error {
	if len(docs) == 0 {
		if _, err := s.db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
		return nil
	}

	staging := name + "_staging"
	stagingColl := s.db.Collection(staging)
	if err := stagingColl.Drop(ctx); err != nil {
		return fmt.Errorf("dropping %s: %w", staging, err)
	}
	if _, err := stagingColl.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}

	cmd := bson.D{
		{Key: "renameCollection", Value: s.db.Name() + "." + staging},
		{Key: "to", Value: s.db.Name() + "." + name},
		{Key: "dropTarget", Value: true},
	}
	if err := s.client.Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("swapping %s: %w", name, err)
	}
	return nil
}
