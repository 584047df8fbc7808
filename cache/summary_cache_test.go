package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"P3DrumMachine/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func TestSummaryKeys(t *testing.T) {
	if GetSummaryHashKey("p3dm") != "p3dm:summaries" {
		t.Error(GetSummaryHashKey("p3dm"))
	}
	if GetSummaryOrderKey("x") != "x:summaries:by_modified" {
		t.Error(GetSummaryOrderKey("x"))
	}
	c := NewSummaryCache(nil, "").(*SummaryCache)
	if c.hashKey != "p3dm:summaries" {
		t.Errorf("default prefix not applied: %s", c.hashKey)
	}
}

// Runs against a real server when REDIS_ADDR is set.
func TestSummaryCacheRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	prefix := "p3dm-test-" + uuid.NewString()
	idx := NewSummaryCache(client, prefix)
	defer client.Del(ctx, GetSummaryHashKey(prefix), GetSummaryOrderKey(prefix))

	base := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	a := model.SessionSummary{ID: uuid.New(), Name: "a", ModifiedAt: base, BPM: 102}
	b := model.SessionSummary{ID: uuid.New(), Name: "b", ModifiedAt: base.Add(time.Minute), BPM: 90}
	for _, s := range []model.SessionSummary{a, b} {
		if err := idx.Upsert(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	list, err := idx.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("list = %+v", list)
	}

	if err := idx.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := idx.Replace(ctx, []model.SessionSummary{b}); err != nil {
		t.Fatal(err)
	}
	list, _ = idx.List(ctx)
	if len(list) != 1 || list[0].ID != b.ID || list[0].Name != "b" {
		t.Fatalf("after replace = %+v", list)
	}
}
