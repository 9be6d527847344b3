package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"flipduel/internal/models"
)

func TestUpdatePriceAuthorization(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	err := ts.prices.UpdatePrice(ctx, "mallory", "cool-cats:1", 100, "test")
	if !errors.Is(err, models.ErrOnlyOracle) {
		t.Fatalf("unauthorized push: expected ErrOnlyOracle, got %v", err)
	}

	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 100, "test"); err != nil {
		t.Fatalf("owner push failed: %v", err)
	}

	price, err := ts.prices.GetPrice(ctx, "cool-cats:1")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if price != 100 {
		t.Errorf("price = %d, want 100", price)
	}
}

func TestUpdatePriceRejectsNonPositive(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 0, "test"); !errors.Is(err, models.ErrInvalidPrice) {
		t.Errorf("zero price: expected ErrInvalidPrice, got %v", err)
	}
	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", -5, "test"); !errors.Is(err, models.ErrInvalidPrice) {
		t.Errorf("negative price: expected ErrInvalidPrice, got %v", err)
	}
}

func TestUpdatePriceInterval(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	// The first price for an asset is always accepted
	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 100, "test"); err != nil {
		t.Fatalf("first push failed: %v", err)
	}

	// Re-pricing inside the interval is rejected
	err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 120, "test")
	if !errors.Is(err, models.ErrUpdateTooSoon) {
		t.Fatalf("second push: expected ErrUpdateTooSoon, got %v", err)
	}
	if price, _ := ts.prices.GetPrice(ctx, "cool-cats:1"); price != 100 {
		t.Errorf("rejected push changed the price to %d", price)
	}

	// A different asset is not throttled
	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:2", 55, "test"); err != nil {
		t.Fatalf("other-asset push failed: %v", err)
	}

	// Once the interval has elapsed the update goes through
	err = ts.db.Model(&models.AssetPrice{}).
		Where("asset_id = ?", "cool-cats:1").
		Update("last_updated", int64(0)).Error
	if err != nil {
		t.Fatalf("failed to backdate price: %v", err)
	}
	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 120, "test"); err != nil {
		t.Fatalf("post-interval push failed: %v", err)
	}
	if price, _ := ts.prices.GetPrice(ctx, "cool-cats:1"); price != 120 {
		t.Errorf("price = %d, want 120", price)
	}
}

func TestBatchUpdatePrices(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if err := ts.prices.BatchUpdatePrices(ctx, testOracleOwner, nil); !errors.Is(err, models.ErrEmptyBatch) {
		t.Errorf("empty batch: expected ErrEmptyBatch, got %v", err)
	}

	oversized := make([]models.PriceUpdate, models.MaxBatchUpdateSize+1)
	for i := range oversized {
		oversized[i] = models.PriceUpdate{AssetID: fmt.Sprintf("cool-cats:%d", i), Price: 10, Source: "test"}
	}
	if err := ts.prices.BatchUpdatePrices(ctx, testOracleOwner, oversized); !errors.Is(err, models.ErrBatchTooLarge) {
		t.Errorf("oversized batch: expected ErrBatchTooLarge, got %v", err)
	}

	batch := []models.PriceUpdate{
		{AssetID: "cool-cats:1", Price: 100, Source: "test"},
		{AssetID: "cool-cats:2", Price: 200, Source: "test"},
	}
	if err := ts.prices.BatchUpdatePrices(ctx, testOracleOwner, batch); err != nil {
		t.Fatalf("batch push failed: %v", err)
	}

	prices, err := ts.prices.GetMultiplePrices(ctx, []string{"cool-cats:1", "cool-cats:2", "cool-cats:3"})
	if err != nil {
		t.Fatalf("GetMultiplePrices failed: %v", err)
	}
	if prices["cool-cats:1"] != 100 || prices["cool-cats:2"] != 200 {
		t.Errorf("batch prices = %v", prices)
	}
	if prices["cool-cats:3"] != 0 {
		t.Errorf("unknown asset should read 0, got %d", prices["cool-cats:3"])
	}

	// Batch pushes skip the per-asset interval check
	repriced := []models.PriceUpdate{{AssetID: "cool-cats:1", Price: 150, Source: "test"}}
	if err := ts.prices.BatchUpdatePrices(ctx, testOracleOwner, repriced); err != nil {
		t.Fatalf("immediate batch re-price failed: %v", err)
	}
	if price, _ := ts.prices.GetPrice(ctx, "cool-cats:1"); price != 150 {
		t.Errorf("price = %d, want 150", price)
	}
}

func TestBatchUpdateAbortsOnBadEntry(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	batch := []models.PriceUpdate{
		{AssetID: "cool-cats:1", Price: 100, Source: "test"},
		{AssetID: "cool-cats:2", Price: 0, Source: "test"},
	}
	if err := ts.prices.BatchUpdatePrices(ctx, testOracleOwner, batch); !errors.Is(err, models.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	// The whole batch rolls back, including the valid leading entry
	if price, _ := ts.prices.GetPrice(ctx, "cool-cats:1"); price != 0 {
		t.Errorf("aborted batch wrote a price: %d", price)
	}
}

func TestUpdaterManagement(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if err := ts.prices.AddUpdater(ctx, "mallory", "feed-bot"); !errors.Is(err, models.ErrOnlyOracleOwner) {
		t.Errorf("non-owner add: expected ErrOnlyOracleOwner, got %v", err)
	}

	if err := ts.prices.AddUpdater(ctx, testOracleOwner, "feed-bot"); err != nil {
		t.Fatalf("AddUpdater failed: %v", err)
	}
	if err := ts.prices.AddUpdater(ctx, testOracleOwner, "feed-bot"); !errors.Is(err, models.ErrAlreadyAuthorized) {
		t.Errorf("duplicate add: expected ErrAlreadyAuthorized, got %v", err)
	}

	// The new updater can push
	if err := ts.prices.UpdatePrice(ctx, "feed-bot", "cool-cats:1", 100, "feed"); err != nil {
		t.Fatalf("authorized push failed: %v", err)
	}

	updaters, err := ts.prices.ListUpdaters(ctx)
	if err != nil {
		t.Fatalf("ListUpdaters failed: %v", err)
	}
	if len(updaters) != 2 {
		t.Errorf("updater count = %d, want 2", len(updaters))
	}

	if err := ts.prices.RemoveUpdater(ctx, testOracleOwner, testOracleOwner); !errors.Is(err, models.ErrOnlyOracleOwner) {
		t.Errorf("owner self-removal: expected ErrOnlyOracleOwner, got %v", err)
	}
	if err := ts.prices.RemoveUpdater(ctx, testOracleOwner, "nobody"); !errors.Is(err, models.ErrUpdaterNotFound) {
		t.Errorf("remove unknown: expected ErrUpdaterNotFound, got %v", err)
	}

	if err := ts.prices.RemoveUpdater(ctx, testOracleOwner, "feed-bot"); err != nil {
		t.Fatalf("RemoveUpdater failed: %v", err)
	}
	if err := ts.prices.UpdatePrice(ctx, "feed-bot", "cool-cats:2", 100, "feed"); !errors.Is(err, models.ErrOnlyOracle) {
		t.Errorf("revoked push: expected ErrOnlyOracle, got %v", err)
	}
}

func TestSetMinUpdateInterval(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if err := ts.prices.SetMinUpdateInterval(ctx, "mallory", 0); !errors.Is(err, models.ErrOnlyOracleOwner) {
		t.Errorf("non-owner: expected ErrOnlyOracleOwner, got %v", err)
	}

	// Interval zero disables throttling entirely
	if err := ts.prices.SetMinUpdateInterval(ctx, testOracleOwner, 0); err != nil {
		t.Fatalf("SetMinUpdateInterval failed: %v", err)
	}
	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 100, "test"); err != nil {
		t.Fatalf("first push failed: %v", err)
	}
	if err := ts.prices.UpdatePrice(ctx, testOracleOwner, "cool-cats:1", 110, "test"); err != nil {
		t.Fatalf("immediate re-price with zero interval failed: %v", err)
	}
}
