package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

type ScoreRepository interface {
	Save(ctx context.Context, sessionID string, tally *entity.ScoreTally) error
	Load(ctx context.Context, sessionID string) (*entity.ScoreTally, error)
	DeleteByID(ctx context.Context, sessionID string) error
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

func (that *dbScore) Save(ctx context.Context, sessionID string, tally *entity.ScoreTally) error {
	tallyJSON, err := json.Marshal(tally)
	if err != nil {
		return fmt.Errorf("failed to marshal score tally: %w", err)
	}

	scoreKey := "score:" + sessionID
	if err = that.client.Set(ctx, scoreKey, tallyJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set score tally: %w", err)
	}

	return nil
}

// Load returns the stored tally, or a zero tally for a session that has
// not finished a game yet.
func (that *dbScore) Load(ctx context.Context, sessionID string) (*entity.ScoreTally, error) {
	scoreKey := "score:" + sessionID

	response, err := that.client.Get(ctx, scoreKey).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.ScoreTally{}, nil
	}

	if err != nil {
		return &entity.ScoreTally{}, fmt.Errorf("failed to get score tally: %w", err)
	}

	var tally entity.ScoreTally
	if err = json.Unmarshal([]byte(response), &tally); err != nil {
		return &entity.ScoreTally{}, fmt.Errorf("failed to unmarshal score tally: %w", err)
	}

	return &tally, nil
}

func (that *dbScore) DeleteByID(ctx context.Context, sessionID string) error {
	scoreKey := "score:" + sessionID

	if err := that.client.Del(ctx, scoreKey).Err(); err != nil {
		return fmt.Errorf("failed to delete score tally: %w", err)
	}

	return nil
}
