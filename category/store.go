package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vcardoso/lojabackend/database"
	"github.com/vcardoso/lojabackend/models"
)

// Patch is a partial scalar update. Nil fields are left untouched; parent
// moves go through Manager.Reparent instead so the children sets stay
// symmetric.
type Patch struct {
	Name        *string
	Slug        *string
	Description *string
	Image       *string
	Icon        *string
	Order       *int
	IsActive    *bool
	Featured    *bool
	UpdatedBy   bson.ObjectID
}

// Store is the persistence surface the tree manager needs. The Mongo
// implementation lives below; tests run the manager against an in-memory
// double.
type Store interface {
	Get(ctx context.Context, id bson.ObjectID) (*models.Category, error)
	BySlug(ctx context.Context, slug string) (*models.Category, error)
	Roots(ctx context.Context) ([]models.Category, error)
	ChildrenOf(ctx context.Context, parent bson.ObjectID) ([]models.Category, error)
	Count(ctx context.Context) (int64, error)

	Insert(ctx context.Context, cat *models.Category) (bson.ObjectID, error)
	Apply(ctx context.Context, id bson.ObjectID, patch Patch) error
	SetParent(ctx context.Context, id bson.ObjectID, parent *bson.ObjectID) error
	AddChild(ctx context.Context, parent, child bson.ObjectID) error
	RemoveChild(ctx context.Context, parent, child bson.ObjectID) error
	Remove(ctx context.Context, ids []bson.ObjectID) (int64, error)

	// ClearProductRefs nulls the category field on every product referencing
	// one of ids; the products themselves survive a cascade delete.
	ClearProductRefs(ctx context.Context, ids []bson.ObjectID) (int64, error)

	// InTx runs fn so that either all of its writes become visible or none do.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoStore struct {
	db         *database.DB
	categories *mongo.Collection
	products   *mongo.Collection
}

func NewStore(db *database.DB) Store {
	return &mongoStore{
		db:         db,
		categories: db.Collection("categories"),
		products:   db.Collection("products"),
	}
}

func (s *mongoStore) Get(ctx context.Context, id bson.ObjectID) (*models.Category, error) {
	var cat models.Category
	err := s.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&cat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &cat, nil
}

func (s *mongoStore) BySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	err := s.categories.FindOne(ctx, bson.M{"slug": slug}).Decode(&cat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return &cat, nil
}

func (s *mongoStore) Roots(ctx context.Context) ([]models.Category, error) {
	return s.find(ctx, bson.M{"parent": nil})
}

func (s *mongoStore) ChildrenOf(ctx context.Context, parent bson.ObjectID) ([]models.Category, error) {
	return s.find(ctx, bson.M{"parent": parent})
}

func (s *mongoStore) find(ctx context.Context, filter bson.M) ([]models.Category, error) {
	cursor, err := s.categories.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	cats := make([]models.Category, 0)
	if err := cursor.All(ctx, &cats); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return cats, nil
}

func (s *mongoStore) Count(ctx context.Context) (int64, error) {
	return s.categories.CountDocuments(ctx, bson.M{})
}

func (s *mongoStore) Insert(ctx context.Context, cat *models.Category) (bson.ObjectID, error) {
	res, err := s.categories.InsertOne(ctx, cat)
	if err != nil {
		return bson.ObjectID{}, err
	}
	return res.InsertedID.(bson.ObjectID), nil
}

func (s *mongoStore) Apply(ctx context.Context, id bson.ObjectID, patch Patch) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Slug != nil {
		set["slug"] = *patch.Slug
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Icon != nil {
		set["icon"] = *patch.Icon
	}
	if patch.Order != nil {
		set["order"] = *patch.Order
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}
	if patch.Featured != nil {
		set["featured"] = *patch.Featured
	}
	if !patch.UpdatedBy.IsZero() {
		set["updatedBy"] = patch.UpdatedBy
	}

	res, err := s.categories.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) SetParent(ctx context.Context, id bson.ObjectID, parent *bson.ObjectID) error {
	res, err := s.categories.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"parent": parent, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("set parent: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) AddChild(ctx context.Context, parent, child bson.ObjectID) error {
	res, err := s.categories.UpdateByID(ctx, parent, bson.M{
		"$addToSet": bson.M{"children": child},
	})
	if err != nil {
		return fmt.Errorf("add child: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) RemoveChild(ctx context.Context, parent, child bson.ObjectID) error {
	_, err := s.categories.UpdateByID(ctx, parent, bson.M{
		"$pull": bson.M{"children": child},
	})
	if err != nil {
		return fmt.Errorf("remove child: %w", err)
	}
	return nil
}

func (s *mongoStore) Remove(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	res, err := s.categories.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete categories: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *mongoStore) ClearProductRefs(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	res, err := s.products.UpdateMany(ctx,
		bson.M{"category": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"category": nil, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("clear product refs: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *mongoStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithTransaction(ctx, fn)
}
