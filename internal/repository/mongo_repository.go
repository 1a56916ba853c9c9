package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sessionTTL is how long an untouched session cart is kept.
const sessionTTL = 90 * 24 * time.Hour

// cartDocument is the stored shape of a session cart. Prices are kept as decimal
// strings so no precision is lost in BSON.
type cartDocument struct {
	SessionID string         `bson:"session_id"`
	Items     []lineDocument `bson:"items"`
	IsVisible bool           `bson:"is_visible"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type lineDocument struct {
	VariantKey        string  `bson:"variant_key"`
	ProductID         string  `bson:"product_id"`
	Title             string  `bson:"title"`
	Style             string  `bson:"style"`
	UnitPrice         string  `bson:"unit_price"`
	OriginalUnitPrice *string `bson:"original_unit_price,omitempty"`
	ImageRef          string  `bson:"image_ref"`
	Size              string  `bson:"size"`
	Frame             string  `bson:"frame"`
	Quantity          int     `bson:"quantity"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

// GetCart returns the stored items and visibility. Derived totals are left zero;
// callers restore the state through the cart package, which recomputes them.
func (m *mongoRepository) GetCart(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	var doc cartDocument

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDocument(doc)
}

func (m *mongoRepository) UpsertCart(ctx context.Context, session *domain.CartSession) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	doc := toDocument(session)
	filter := bson.M{"session_id": session.SessionID}
	update := bson.M{
		"$set": bson.M{
			"items":      doc.Items,
			"is_visible": doc.IsVisible,
			"updated_at": doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": doc.CreatedAt},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, sessionID string, notAfter time.Time) error {
	filter := bson.M{
		"session_id": sessionID,
		"updated_at": bson.M{"$lte": notAfter.UTC()},
	}
	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sessionTTL.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// CreateIndexes is a no-op for repositories that are not Mongo-backed.
func CreateIndexes(ctx context.Context, repo CartRepository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}

func toDocument(session *domain.CartSession) cartDocument {
	items := make([]lineDocument, len(session.State.Items))
	for i, item := range session.State.Items {
		items[i] = lineDocument{
			VariantKey: item.VariantKey,
			ProductID:  item.ProductID,
			Title:      item.Title,
			Style:      item.Style,
			UnitPrice:  item.UnitPrice.String(),
			ImageRef:   item.ImageRef,
			Size:       item.Size,
			Frame:      item.Frame,
			Quantity:   item.Quantity,
		}
		if item.OriginalUnitPrice != nil {
			s := item.OriginalUnitPrice.String()
			items[i].OriginalUnitPrice = &s
		}
	}
	return cartDocument{
		SessionID: session.SessionID,
		Items:     items,
		IsVisible: session.State.IsVisible,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

func fromDocument(doc cartDocument) (*domain.CartSession, error) {
	items := make([]domain.LineItem, len(doc.Items))
	for i, d := range doc.Items {
		price, err := decimal.NewFromString(d.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("cart %s: bad unit price %q: %w", doc.SessionID, d.UnitPrice, err)
		}
		items[i] = domain.LineItem{
			VariantKey: d.VariantKey,
			ProductID:  d.ProductID,
			Title:      d.Title,
			Style:      d.Style,
			UnitPrice:  price,
			ImageRef:   d.ImageRef,
			Size:       d.Size,
			Frame:      d.Frame,
			Quantity:   d.Quantity,
		}
		if d.OriginalUnitPrice != nil {
			orig, err := decimal.NewFromString(*d.OriginalUnitPrice)
			if err != nil {
				return nil, fmt.Errorf("cart %s: bad original price %q: %w", doc.SessionID, *d.OriginalUnitPrice, err)
			}
			items[i].OriginalUnitPrice = &orig
		}
	}
	return &domain.CartSession{
		SessionID: doc.SessionID,
		State: domain.CartState{
			Items:     items,
			IsVisible: doc.IsVisible,
			Subtotal:  decimal.Zero,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
