package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"refsync/entity"
	"refsync/internal/config"
)

const (
	collectionUsers     = "users"
	collectionReferrals = "referrals"
)

// MongoDB mirrors users and referrals to a durable collection. The
// in-memory store stays authoritative while the process runs; the mirror
// is read back once at startup.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) upsert(ctx context.Context, collectionName, id string, value interface{}) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionName)
	filter := bson.D{{Key: "id", Value: id}}
	update := bson.D{{Key: "$set", Value: value}}
	opts := options.Update().SetUpsert(true)
	if _, err = collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("mongodb upsert %s: %w", collectionName, err)
	}
	return nil
}

func (m *MongoDB) SaveUser(ctx context.Context, user *entity.User) error {
	return m.upsert(ctx, collectionUsers, user.Id, user)
}

func (m *MongoDB) SaveReferral(ctx context.Context, referral *entity.Referral) error {
	return m.upsert(ctx, collectionReferrals, referral.Id, referral)
}

// GetUsers returns all mirrored users ordered by creation time
func (m *MongoDB) GetUsers(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	if err := m.findAll(ctx, collectionUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetReferrals returns all mirrored referrals ordered by creation time
func (m *MongoDB) GetReferrals(ctx context.Context) ([]*entity.Referral, error) {
	var referrals []*entity.Referral
	if err := m.findAll(ctx, collectionReferrals, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}

func (m *MongoDB) findAll(ctx context.Context, collectionName string, result interface{}) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionName)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("mongodb find %s: %w", collectionName, err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, result); err != nil {
		return fmt.Errorf("mongodb decode %s: %w", collectionName, err)
	}
	return nil
}
