package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/cli"
	"github.com/nulzo/oneai-gateway/internal/gateway"
	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/internal/platform/logger"
	"github.com/nulzo/oneai-gateway/internal/server/middleware"
	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/model"
	"github.com/nulzo/oneai-gateway/internal/store/sqlite"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

var seedProviders = map[api.Task][]string{
	api.TaskChat:          {"together", "openai", "anthropic"},
	api.TaskImage:         {"together", "openai", "replicate"},
	api.TaskVideo:         {"heygen", gateway.DemoProvider},
	api.TaskAudio:         {"elevenlabs", gateway.DemoProvider},
	api.TaskMusic:         {"suno", gateway.DemoProvider},
	api.TaskTranscription: {"openai", gateway.DemoProvider},
}

func main() {
	dsn := flag.String("dsn", "oneai.db", "sqlite database path")
	days := flag.Int("days", 14, "days of request history to generate")
	perDay := flag.Int("per-day", 40, "requests per day")
	flag.Parse()

	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()

	repo, err := sqlite.NewSQLiteStorage(*dsn)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer repo.Close()

	ctx := context.Background()
	userID := uuid.NewString()

	rawKey := "sk-oneai-" + uuid.NewString()[:12]
	key := &model.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      "Seed Key",
		KeyHash:   middleware.HashKey(rawKey),
		KeyPrefix: rawKey[:9],
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err = repo.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.APIKeys().Create(ctx, key); err != nil {
			return fmt.Errorf("create key: %w", err)
		}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for d := 0; d < *days; d++ {
			for i := 0; i < *perDay; i++ {
				if err := tx.Requests().Log(ctx, record(rng, d, userID, key.ID)); err != nil {
					return fmt.Errorf("log request: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	fmt.Printf("%s Seeded %d requests into %s\n", cli.CheckMark(), *days**perDay, *dsn)
	fmt.Println(cli.PrettyFormat(map[string]interface{}{
		"key_id":     key.ID,
		"user_id":    userID,
		"key_prefix": key.KeyPrefix,
		"days":       *days,
		"per_day":    *perDay,
	}))
	fmt.Printf("API Key: %s\n", cli.Style(rawKey, cli.Bold))
	fmt.Printf("Use this key in your Authorization header: Bearer %s\n", rawKey)
}

func record(rng *rand.Rand, daysAgo int, userID, keyID string) *model.RequestRecord {
	tasks := api.Tasks()
	task := tasks[rng.Intn(len(tasks))]
	providers := seedProviders[task]
	provider := providers[rng.Intn(len(providers))]

	rec := &model.RequestRecord{
		ID:         "req_" + uuid.NewString(),
		Task:       string(task),
		ProviderID: provider,
		Success:    true,
		LatencyMS:  int64(200 + rng.Intn(4000)),
		UserID:     userID,
		APIKeyID:   keyID,
		AppName:    "seed",
		CreatedAt:  time.Now().AddDate(0, 0, -daysAgo).Add(-time.Duration(rng.Intn(86400)) * time.Second),
	}

	switch {
	case provider == gateway.DemoProvider:
		rec.Degraded = true
		rec.ErrorKind = string(llm.KindConfiguration)
	case rng.Intn(10) == 0:
		rec.Success = false
		rec.ErrorKind = string(llm.KindVendor)
	case task == api.TaskChat:
		usage := api.Usage{InputTokens: 20 + rng.Intn(800), OutputTokens: 10 + rng.Intn(600)}
		rec.InputTokens = usage.InputTokens
		rec.OutputTokens = usage.OutputTokens
		rec.Cost = api.EstimateCost(usage)
	}
	return rec
}
