package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"flipduel/internal/models"
	"flipduel/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testRegistryIdentity = "duel-registry"
	testTreasuryWallet   = "platform-treasury"
	testOracleOwner      = "oracle-owner"
)

var testDBCounter int64

func setupTestDB(t *testing.T) *gorm.DB {
	// Each test gets its own named shared-cache memory DB so parallel
	// connections from the gorm pool see the same data.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.LedgerAccount{},
		&models.PlatformState{},
		&models.Duel{},
		&models.DuelParticipant{},
		&models.DuelEvent{},
		&models.Portfolio{},
		&models.Holding{},
		&models.TradeRecord{},
		&models.AssetPrice{},
		&models.OracleState{},
		&models.OracleUpdater{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

type testServices struct {
	db       *gorm.DB
	repo     *repository.Repository
	treasury *TreasuryService
	trading  *TradingService
	duels    *DuelService
	prices   *PriceService
}

func newTestServices(t *testing.T) *testServices {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)

	treasury := NewTreasuryService(repo)
	trading := NewTradingService(repo, testRegistryIdentity)
	duels := NewDuelService(repo, treasury, trading, testRegistryIdentity, testTreasuryWallet)
	prices := NewPriceService(repo, testOracleOwner, 30*time.Second)

	if err := prices.EnsureInitialized(context.Background()); err != nil {
		t.Fatalf("failed to initialize oracle: %v", err)
	}

	return &testServices{
		db:       db,
		repo:     repo,
		treasury: treasury,
		trading:  trading,
		duels:    duels,
		prices:   prices,
	}
}

func (ts *testServices) fund(t *testing.T, wallet string, amount int64) {
	if _, err := ts.treasury.Deposit(context.Background(), wallet, amount); err != nil {
		t.Fatalf("failed to fund %s: %v", wallet, err)
	}
}

func (ts *testServices) balance(t *testing.T, wallet string) int64 {
	balance, err := ts.treasury.GetBalance(context.Background(), wallet)
	if err != nil {
		t.Fatalf("failed to read balance of %s: %v", wallet, err)
	}
	return balance
}

// createDuel opens a duel with the given creator already funded
func (ts *testServices) createDuel(t *testing.T, creator string, fee int64, duration int64, maxPlayers int) *models.Duel {
	ts.fund(t, creator, fee)
	duel, err := ts.duels.CreateDuel(context.Background(), creator, &CreateDuelRequest{
		DurationSeconds: duration,
		CollectionID:    "cool-cats",
		MaxParticipants: maxPlayers,
		EntryFee:        fee,
	})
	if err != nil {
		t.Fatalf("failed to create duel: %v", err)
	}
	return duel
}

// join funds and joins a wallet into a duel
func (ts *testServices) join(t *testing.T, wallet string, duelID uint64, fee int64) *models.Duel {
	ts.fund(t, wallet, fee)
	duel, err := ts.duels.JoinDuel(context.Background(), wallet, duelID, fee)
	if err != nil {
		t.Fatalf("failed to join duel %d: %v", duelID, err)
	}
	return duel
}

// expire rewinds a duel's contest window so it can be closed
func (ts *testServices) expire(t *testing.T, duelID uint64) {
	past := time.Now().UnixMilli() - 1000
	err := ts.db.Model(&models.Duel{}).
		Where("duel_id = ?", duelID).
		Update("end_time", past).Error
	if err != nil {
		t.Fatalf("failed to expire duel %d: %v", duelID, err)
	}
}

// setPrice pushes a price as the oracle owner, bypassing the update
// interval by backdating any existing row first
func (ts *testServices) setPrice(t *testing.T, assetID string, price int64) {
	err := ts.db.Model(&models.AssetPrice{}).
		Where("asset_id = ?", assetID).
		Update("last_updated", int64(0)).Error
	if err != nil {
		t.Fatalf("failed to backdate price for %s: %v", assetID, err)
	}
	if err := ts.prices.UpdatePrice(context.Background(), testOracleOwner, assetID, price, "test"); err != nil {
		t.Fatalf("failed to set price %s=%d: %v", assetID, price, err)
	}
}
