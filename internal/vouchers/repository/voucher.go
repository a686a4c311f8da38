package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	voucherserrors "stayvoucher/internal/vouchers/errors"
	"stayvoucher/pkg/config"
	mongotx "stayvoucher/pkg/db/mongo"
	"stayvoucher/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Vouchers"
)

// ReserveParams identifies one reservation attempt. Caps are passed in from
// the voucher snapshot so the guard filters and the caller agree on limits.
type ReserveParams struct {
	VoucherID       string
	SubjectID       string
	Quantity        int64
	UsageLimit      int64 // 0 = unlimited
	PerSubjectLimit int64 // 0 = unlimited
}

type mongoVoucherRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type VoucherRepository interface {
	Create(ctx context.Context, voucher *model.Voucher) error
	FindByID(ctx context.Context, id string) (*model.Voucher, error)
	FindByCode(ctx context.Context, code string) (*model.Voucher, error)
	FindAll(ctx context.Context, filter model.VoucherFilter, limit int, offset int64) ([]*model.Voucher, error)
	Count(ctx context.Context, filter model.VoucherFilter) (int64, error)
	Update(ctx context.Context, id string, update bson.M) (*model.Voucher, error)
	Delete(ctx context.Context, id string) error

	ReserveExisting(ctx context.Context, p ReserveParams) (bool, error)
	ReserveNew(ctx context.Context, p ReserveParams) (bool, error)
	Release(ctx context.Context, voucherID, subjectID string, quantity int64) error
	MarkExhausted(ctx context.Context, voucherID string) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoVoucherRepository(cfg *config.Config) VoucherRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVoucherRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext must not be wrapped or the transaction semantics break.
func (r *mongoVoucherRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVoucherRepository) Create(ctx context.Context, voucher *model.Voucher) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	voucher.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, voucher)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return voucherserrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		voucher.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVoucherRepository) FindByID(ctx context.Context, id string) (*model.Voucher, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, id)
	}

	var voucher model.Voucher
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&voucher)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, voucherserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	return &voucher, nil
}

func (r *mongoVoucherRepository) FindByCode(ctx context.Context, code string) (*model.Voucher, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var voucher model.Voucher
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&voucher)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, voucherserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find voucher by code: %w", err)
	}

	return &voucher, nil
}

func (r *mongoVoucherRepository) FindAll(ctx context.Context, filter model.VoucherFilter, limit int, offset int64) ([]*model.Voucher, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildCatalogFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find vouchers: %w", err)
	}
	defer cursor.Close(ctx)

	var vouchers []*model.Voucher
	if err = cursor.All(ctx, &vouchers); err != nil {
		return nil, fmt.Errorf("failed to decode vouchers: %w", err)
	}

	return vouchers, nil
}

func (r *mongoVoucherRepository) Count(ctx context.Context, filter model.VoucherFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildCatalogFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count vouchers: %w", err)
	}

	return count, nil
}

// buildCatalogFilter translates the list filter. A hotel filter matches both
// vouchers scoped to the hotel and unscoped vouchers, which apply everywhere.
func buildCatalogFilter(f model.VoucherFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Code != "" {
		filter["code"] = f.Code
	}
	if f.HotelID != "" {
		filter["$or"] = []bson.M{
			{"applicable_hotels": f.HotelID},
			{"applicable_hotels": bson.M{"$exists": false}},
			{"applicable_hotels": bson.M{"$size": 0}},
		}
	}
	return filter
}

// Update applies a $set document built by the service layer and returns the
// updated voucher. Quota counters are never part of the $set.
func (r *mongoVoucherRepository) Update(ctx context.Context, id string, set bson.M) (*model.Voucher, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Voucher
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, voucherserrors.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, voucherserrors.ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to update voucher: %w", err)
	}

	return &updated, nil
}

// Delete removes a voucher only while it has no recorded usage.
func (r *mongoVoucherRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "used_count": 0}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	if result.DeletedCount == 0 {
		// Distinguish "gone" from "in use" for the caller.
		exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to delete voucher: %w", err)
		}
		if exists > 0 {
			return voucherserrors.ErrInUse
		}
		return voucherserrors.ErrNotFound
	}

	return nil
}

// ReserveExisting atomically increments the caller's existing usage entry.
// The filter embeds both caps, so a concurrent reservation that would
// overshoot either limit simply matches nothing. Returns false when no
// document matched, which means either the subject has no entry yet or a cap
// would be exceeded; the caller then tries ReserveNew or reports exhaustion.
func (r *mongoVoucherRepository) ReserveExisting(ctx context.Context, p ReserveParams) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(p.VoucherID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, p.VoucherID)
	}

	entry := bson.M{"subject_id": p.SubjectID}
	if p.PerSubjectLimit > 0 {
		entry["count"] = bson.M{"$lte": p.PerSubjectLimit - p.Quantity}
	}

	filter := bson.M{
		"_id":     objectID,
		"status":  model.VoucherStatusActive,
		"used_by": bson.M{"$elemMatch": entry},
	}
	if p.UsageLimit > 0 {
		filter["used_count"] = bson.M{"$lte": p.UsageLimit - p.Quantity}
	}

	update := bson.M{
		"$inc": bson.M{
			"used_by.$.count": p.Quantity,
			"used_count":      p.Quantity,
		},
		"$set": bson.M{
			"used_by.$.last_used_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to reserve voucher quota: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

// ReserveNew atomically pushes a first usage entry for the subject. The
// $not/$elemMatch guard loses the race against a concurrent first reservation
// by the same subject, in which case the caller retries ReserveExisting.
func (r *mongoVoucherRepository) ReserveNew(ctx context.Context, p ReserveParams) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(p.VoucherID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, p.VoucherID)
	}

	filter := bson.M{
		"_id":     objectID,
		"status":  model.VoucherStatusActive,
		"used_by": bson.M{"$not": bson.M{"$elemMatch": bson.M{"subject_id": p.SubjectID}}},
	}
	if p.UsageLimit > 0 {
		filter["used_count"] = bson.M{"$lte": p.UsageLimit - p.Quantity}
	}

	update := bson.M{
		"$push": bson.M{
			"used_by": model.SubjectUsage{
				SubjectID:  p.SubjectID,
				Count:      p.Quantity,
				LastUsedAt: time.Now().UTC().Truncate(time.Millisecond),
			},
		},
		"$inc": bson.M{"used_count": p.Quantity},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to reserve voucher quota: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

// Release undoes a reservation after a downstream failure. The decrement and
// the cleanup of emptied entries are two updates; between them the invariant
// used_count == sum(used_by[].count) still holds, only a zero-count entry may
// linger briefly. A voucher that MarkExhausted flipped to expired is flipped
// back once the release reopens headroom, so compensation restores the full
// pre-reservation state.
func (r *mongoVoucherRepository) Release(ctx context.Context, voucherID, subjectID string, quantity int64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(voucherID)
	if err != nil {
		return fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, voucherID)
	}

	filter := bson.M{
		"_id": objectID,
		"used_by": bson.M{"$elemMatch": bson.M{
			"subject_id": subjectID,
			"count":      bson.M{"$gte": quantity},
		}},
	}
	update := bson.M{
		"$inc": bson.M{
			"used_by.$.count": -quantity,
			"used_count":      -quantity,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release voucher quota: %w", err)
	}
	if result.ModifiedCount == 0 {
		return fmt.Errorf("no matching reservation to release for voucher %s", voucherID)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$pull": bson.M{"used_by": bson.M{"count": bson.M{"$lte": 0}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to prune released usage entry: %w", err)
	}

	// Mirror of MarkExhausted: reactivate only when the release reopened cap
	// headroom on an exhaustion-expired voucher. The status guard keeps
	// inactive vouchers untouched, and an expired voucher with no headroom
	// stays expired.
	reactivate := bson.M{
		"_id":         objectID,
		"status":      model.VoucherStatusExpired,
		"usage_limit": bson.M{"$gt": 0},
		"$expr":       bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}},
	}
	_, err = r.collection.UpdateOne(ctx, reactivate,
		bson.M{"$set": bson.M{"status": model.VoucherStatusActive}},
	)
	if err != nil {
		return fmt.Errorf("failed to reactivate voucher after release: %w", err)
	}

	return nil
}

// MarkExhausted flips an active voucher to expired once its cap is fully
// consumed. Conditional on the live counters, so a concurrent release makes
// it a no-op.
func (r *mongoVoucherRepository) MarkExhausted(ctx context.Context, voucherID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(voucherID)
	if err != nil {
		return fmt.Errorf("%w: %s", voucherserrors.ErrInvalidID, voucherID)
	}

	filter := bson.M{
		"_id":         objectID,
		"status":      model.VoucherStatusActive,
		"usage_limit": bson.M{"$gt": 0},
		"$expr":       bson.M{"$gte": bson.A{"$used_count", "$usage_limit"}},
	}
	update := bson.M{"$set": bson.M{"status": model.VoucherStatusExpired}}

	_, err = r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark voucher exhausted: %w", err)
	}

	return nil
}

func (r *mongoVoucherRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
