package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"stayvoucher/pkg/config"
	"stayvoucher/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Agents"

	codeAttempts = 5
)

var (
	ErrNotFound = errors.New("agent not found")
)

type mongoAgentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type AgentRepository interface {
	Create(ctx context.Context, agent *model.Agent) error
	FindByCode(ctx context.Context, code string) (*model.Agent, error)
}

func NewMongoAgentRepository(cfg *config.Config) AgentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAgentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Create inserts the agent with a generated referral code. The code carries a
// unique index; on collision a fresh code is generated and the insert retried.
func (r *mongoAgentRepository) Create(ctx context.Context, agent *model.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	agent.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	var lastErr error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		agent.Code = generateCode()
		result, err := r.collection.InsertOne(ctx, agent)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("failed to create agent: %w", err)
		}
		if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
			agent.ID = oid.Hex()
		}
		return nil
	}

	return fmt.Errorf("failed to generate a unique agent code: %w", lastErr)
}

func (r *mongoAgentRepository) FindByCode(ctx context.Context, code string) (*model.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var agent model.Agent
	err := r.collection.FindOne(ctx, bson.M{"code": code, "active": true}).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find agent by code: %w", err)
	}

	return &agent, nil
}

func generateCode() string {
	return fmt.Sprintf("AGT-%06d", rand.Intn(1000000))
}
