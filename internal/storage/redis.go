package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
)

// Redis key layout. Account snapshots are plain JSON strings, transaction
// logs and transcripts are append-only lists, and the character index is a
// set so boot hydration never has to SCAN.
const (
	accountKeyPrefix    = "np:account:"
	logKeyPrefix        = "np:log:"
	transcriptKeyPrefix = "np:transcript:"
	charactersKey       = "np:characters"
)

// RedisStorage implements Storage backed by Redis
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis storage instance from a redis:// URL
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStorage{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

// NewRedisStorageWithClient wraps an existing client, used by tests
func NewRedisStorageWithClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{client: client, logger: logger}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

// Client returns the underlying Redis client for direct operations
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// WaitForConnection polls Redis until it responds or the context ends
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveAccount(ctx context.Context, account ledger.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, accountKeyPrefix+account.CharacterID, data, 0)
	pipe.SAdd(ctx, charactersKey, account.CharacterID)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Redis account save failed", "character_id", account.CharacterID, "error", err)
		return fmt.Errorf("redis account save failed: %w", err)
	}

	r.logger.Debug("Account saved", "character_id", account.CharacterID, "balance", account.Balance)
	return nil
}

func (r *RedisStorage) LoadAccount(ctx context.Context, characterID string) (*ledger.Account, error) {
	data, err := r.client.Get(ctx, accountKeyPrefix+characterID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis account load failed: %w", err)
	}

	var account ledger.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %q: %w", characterID, err)
	}
	return &account, nil
}

func (r *RedisStorage) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	if err := r.client.RPush(ctx, logKeyPrefix+tx.CharacterID, data).Err(); err != nil {
		r.logger.Error("Redis transaction append failed", "character_id", tx.CharacterID, "error", err)
		return fmt.Errorf("redis transaction append failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadTransactions(ctx context.Context, characterID string) ([]ledger.Transaction, error) {
	entries, err := r.client.LRange(ctx, logKeyPrefix+characterID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis transaction load failed: %w", err)
	}

	transactions := make([]ledger.Transaction, 0, len(entries))
	for i, entry := range entries {
		var tx ledger.Transaction
		if err := json.Unmarshal([]byte(entry), &tx); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction %d for %q: %w", i, characterID, err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func (r *RedisStorage) ListCharacters(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, charactersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis character list failed: %w", err)
	}
	return ids, nil
}

func (r *RedisStorage) AppendNarration(ctx context.Context, characterID string, entry chat.TranscriptEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}

	if err := r.client.RPush(ctx, transcriptKeyPrefix+characterID, data).Err(); err != nil {
		return fmt.Errorf("redis transcript append failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadTranscript(ctx context.Context, characterID string) ([]chat.TranscriptEntry, error) {
	entries, err := r.client.LRange(ctx, transcriptKeyPrefix+characterID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis transcript load failed: %w", err)
	}

	transcript := make([]chat.TranscriptEntry, 0, len(entries))
	for i, raw := range entries {
		var entry chat.TranscriptEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript entry %d for %q: %w", i, characterID, err)
		}
		transcript = append(transcript, entry)
	}
	return transcript, nil
}
