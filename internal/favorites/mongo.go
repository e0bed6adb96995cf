package favorites

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

type favoriteDoc struct {
	domain.MediaItem `bson:",inline"`
	AddedAt          int64 `bson:"addedAt"`
}

type listDoc struct {
	ID        string        `bson:"_id"`
	Items     []favoriteDoc `bson:"items"`
	UpdatedAt int64         `bson:"updatedAt"`
}

// MongoStore keeps the list in one document whose _id is StorageKey.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName, collectionName string) *MongoStore {
	return &MongoStore{col: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Load returns the stored list, or an empty list if nothing was saved yet.
func (s *MongoStore) Load(ctx context.Context) ([]domain.Favorite, error) {
	var doc listDoc
	err := s.col.FindOne(ctx, bson.M{"_id": StorageKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []domain.Favorite{}, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(doc), nil
}

func (s *MongoStore) Save(ctx context.Context, list []domain.Favorite) error {
	doc := toDoc(list, time.Now())
	_, err := s.col.UpdateOne(
		ctx,
		bson.M{"_id": StorageKey},
		bson.M{"$set": bson.M{
			"items":     doc.Items,
			"updatedAt": doc.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func toDoc(list []domain.Favorite, now time.Time) listDoc {
	items := make([]favoriteDoc, 0, len(list))
	for _, fav := range list {
		items = append(items, favoriteDoc{MediaItem: fav.MediaItem, AddedAt: fav.AddedAt.UnixMilli()})
	}
	return listDoc{ID: StorageKey, Items: items, UpdatedAt: now.UnixMilli()}
}

func fromDoc(doc listDoc) []domain.Favorite {
	list := make([]domain.Favorite, 0, len(doc.Items))
	for _, item := range doc.Items {
		list = append(list, domain.Favorite{
			MediaItem: item.MediaItem,
			AddedAt:   time.UnixMilli(item.AddedAt).UTC(),
		})
	}
	return list
}
