package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"flipduel/internal/models"
)

func TestCreateDuelValidation(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	ts.fund(t, "alice", 1000)

	cases := []struct {
		name string
		req  CreateDuelRequest
		want error
	}{
		{"zero entry fee", CreateDuelRequest{DurationSeconds: 300, MaxParticipants: 2, EntryFee: 0}, models.ErrInvalidEntryFee},
		{"negative entry fee", CreateDuelRequest{DurationSeconds: 300, MaxParticipants: 2, EntryFee: -5}, models.ErrInvalidEntryFee},
		{"duration too short", CreateDuelRequest{DurationSeconds: 59, MaxParticipants: 2, EntryFee: 10}, models.ErrInvalidDuration},
		{"duration too long", CreateDuelRequest{DurationSeconds: 601, MaxParticipants: 2, EntryFee: 10}, models.ErrInvalidDuration},
		{"too few participants", CreateDuelRequest{DurationSeconds: 300, MaxParticipants: 1, EntryFee: 10}, models.ErrInvalidParticipantCount},
		{"too many participants", CreateDuelRequest{DurationSeconds: 300, MaxParticipants: 11, EntryFee: 10}, models.ErrInvalidParticipantCount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ts.duels.CreateDuel(ctx, "alice", &tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if got := ts.balance(t, "alice"); got != 1000 {
		t.Errorf("rejected creates must not move value, balance = %d", got)
	}
}

func TestCreateDuelStakesEntryFee(t *testing.T) {
	ts := newTestServices(t)

	ts.fund(t, "alice", 100)
	duel, err := ts.duels.CreateDuel(context.Background(), "alice", &CreateDuelRequest{
		DurationSeconds: 300,
		CollectionID:    "cool-cats",
		MaxParticipants: 2,
		EntryFee:        25,
	})
	if err != nil {
		t.Fatalf("CreateDuel failed: %v", err)
	}

	if duel.DuelID != 1 {
		t.Errorf("first duel should get id 1, got %d", duel.DuelID)
	}
	if duel.Status != models.DuelStatusOpen {
		t.Errorf("new duel status = %s, want %s", duel.Status, models.DuelStatusOpen)
	}
	if duel.PrizePool != duel.EntryFee {
		t.Errorf("prize pool should equal entry fee, got pool=%d fee=%d", duel.PrizePool, duel.EntryFee)
	}
	if len(duel.Participants) != 1 || duel.Participants[0].Wallet != "alice" {
		t.Errorf("creator should be the only participant, got %+v", duel.Participants)
	}
	if got := ts.balance(t, "alice"); got != 75 {
		t.Errorf("alice balance after stake = %d, want 75", got)
	}
	if got := ts.balance(t, models.EscrowWallet); got != 25 {
		t.Errorf("escrow balance after stake = %d, want 25", got)
	}

	second := ts.createDuel(t, "bob", 25, 300, 2)
	if second.DuelID != 2 {
		t.Errorf("duel ids must be monotonic, got %d", second.DuelID)
	}
}

func TestCreateDuelInsufficientFunds(t *testing.T) {
	ts := newTestServices(t)
	ts.fund(t, "alice", 5)

	_, err := ts.duels.CreateDuel(context.Background(), "alice", &CreateDuelRequest{
		DurationSeconds: 300,
		MaxParticipants: 2,
		EntryFee:        10,
	})
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// The failed create must leave no duel behind
	if _, err := ts.duels.GetDuel(context.Background(), 1); !errors.Is(err, models.ErrDuelNotFound) {
		t.Errorf("expected no duel after rollback, got %v", err)
	}
}

func TestJoinDuelAutoActivates(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	before := time.Now().UnixMilli()
	duel = ts.join(t, "bob", duel.DuelID, 10)

	if duel.Status != models.DuelStatusActive {
		t.Fatalf("full roster should activate, status = %s", duel.Status)
	}
	if duel.PrizePool != 20 {
		t.Errorf("prize pool = %d, want 20", duel.PrizePool)
	}
	if got := duel.EndTime - duel.StartTime; got != 300*models.MillisPerSecond {
		t.Errorf("contest window = %d ms, want %d", got, 300*models.MillisPerSecond)
	}
	if duel.StartTime < before {
		t.Errorf("start time %d predates activation at %d", duel.StartTime, before)
	}

	// Activation seeds a portfolio per participant, cash == entry fee
	for _, wallet := range []string{"alice", "bob"} {
		portfolio, err := ts.trading.GetPortfolio(ctx, duel.DuelID, wallet)
		if err != nil {
			t.Fatalf("missing portfolio for %s: %v", wallet, err)
		}
		if portfolio.CashBalance != 10 || portfolio.InitialValue != 10 {
			t.Errorf("%s portfolio cash=%d initial=%d, want 10/10", wallet, portfolio.CashBalance, portfolio.InitialValue)
		}
	}
}

func TestJoinDuelRejections(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 2)

	ts.fund(t, "bob", 100)
	if _, err := ts.duels.JoinDuel(ctx, "bob", duel.DuelID, 7); !errors.Is(err, models.ErrIncorrectFee) {
		t.Errorf("wrong fee: expected ErrIncorrectFee, got %v", err)
	}
	if _, err := ts.duels.JoinDuel(ctx, "alice", duel.DuelID, 10); !errors.Is(err, models.ErrAlreadyParticipant) {
		t.Errorf("creator rejoining: expected ErrAlreadyParticipant, got %v", err)
	}
	if _, err := ts.duels.JoinDuel(ctx, "bob", 999, 10); !errors.Is(err, models.ErrDuelNotFound) {
		t.Errorf("unknown duel: expected ErrDuelNotFound, got %v", err)
	}

	ts.join(t, "bob", duel.DuelID, 10)

	// Active contests are not joinable
	ts.fund(t, "carol", 100)
	if _, err := ts.duels.JoinDuel(ctx, "carol", duel.DuelID, 10); !errors.Is(err, models.ErrDuelNotOpen) {
		t.Errorf("active duel: expected ErrDuelNotOpen, got %v", err)
	}
	if got := ts.balance(t, "carol"); got != 100 {
		t.Errorf("rejected join moved value, carol balance = %d", got)
	}
}

func TestJoinDuelFullRoster(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", duel.DuelID, 10)

	// Force the full contest back to open so the roster cap itself is hit
	if err := ts.db.Model(&models.Duel{}).
		Where("duel_id = ?", duel.DuelID).
		Update("status", models.DuelStatusOpen).Error; err != nil {
		t.Fatalf("failed to reopen duel: %v", err)
	}

	ts.fund(t, "carol", 100)
	if _, err := ts.duels.JoinDuel(ctx, "carol", duel.DuelID, 10); !errors.Is(err, models.ErrDuelFull) {
		t.Fatalf("expected ErrDuelFull, got %v", err)
	}

	refetched, err := ts.duels.GetDuel(ctx, duel.DuelID)
	if err != nil {
		t.Fatalf("GetDuel failed: %v", err)
	}
	if len(refetched.Participants) != 2 {
		t.Errorf("full-roster join mutated the roster: %d participants", len(refetched.Participants))
	}
}

func TestStartDuel(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 120, 5)

	if _, err := ts.duels.StartDuel(ctx, "alice", duel.DuelID); !errors.Is(err, models.ErrNotEnoughParticipants) {
		t.Errorf("solo start: expected ErrNotEnoughParticipants, got %v", err)
	}

	ts.join(t, "bob", duel.DuelID, 10)

	if _, err := ts.duels.StartDuel(ctx, "bob", duel.DuelID); !errors.Is(err, models.ErrOnlyCreator) {
		t.Errorf("non-creator start: expected ErrOnlyCreator, got %v", err)
	}

	started, err := ts.duels.StartDuel(ctx, "alice", duel.DuelID)
	if err != nil {
		t.Fatalf("StartDuel failed: %v", err)
	}
	if started.Status != models.DuelStatusActive {
		t.Errorf("status after start = %s, want %s", started.Status, models.DuelStatusActive)
	}
	if got := started.EndTime - started.StartTime; got != 120*models.MillisPerSecond {
		t.Errorf("contest window = %d ms, want %d", got, 120*models.MillisPerSecond)
	}

	if _, err := ts.duels.StartDuel(ctx, "alice", duel.DuelID); !errors.Is(err, models.ErrDuelNotOpen) {
		t.Errorf("double start: expected ErrDuelNotOpen, got %v", err)
	}
}

func TestCloseDuelBeforeEnd(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", duel.DuelID, 10)

	if _, err := ts.duels.CloseDuel(ctx, duel.DuelID); !errors.Is(err, models.ErrDuelNotEnded) {
		t.Fatalf("close inside window: expected ErrDuelNotEnded, got %v", err)
	}

	open := ts.createDuel(t, "carol", 10, 300, 5)
	if _, err := ts.duels.CloseDuel(ctx, open.DuelID); !errors.Is(err, models.ErrDuelNotActive) {
		t.Errorf("close open duel: expected ErrDuelNotActive, got %v", err)
	}
}

func TestCloseDuelSelectsMaxGain(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	ts.setPrice(t, "cool-cats:17", 5)

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", duel.DuelID, 10)

	// Bob buys at 5, the floor doubles, his portfolio is now worth 15
	if _, err := ts.trading.Buy(ctx, "bob", duel.DuelID, "cool-cats:17"); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	ts.setPrice(t, "cool-cats:17", 10)

	ts.expire(t, duel.DuelID)
	closed, err := ts.duels.CloseDuel(ctx, duel.DuelID)
	if err != nil {
		t.Fatalf("CloseDuel failed: %v", err)
	}

	if closed.Status != models.DuelStatusClosed {
		t.Errorf("status = %s, want %s", closed.Status, models.DuelStatusClosed)
	}
	if closed.Winner == nil || *closed.Winner != "bob" {
		t.Fatalf("winner = %v, want bob", closed.Winner)
	}

	if _, err := ts.duels.CloseDuel(ctx, duel.DuelID); !errors.Is(err, models.ErrDuelNotActive) {
		t.Errorf("double close: expected ErrDuelNotActive, got %v", err)
	}
}

func TestCloseDuelTieGoesToEarliestJoiner(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 3)
	ts.join(t, "bob", duel.DuelID, 10)
	ts.join(t, "carol", duel.DuelID, 10)

	// Nobody trades, every gain is zero
	ts.expire(t, duel.DuelID)
	closed, err := ts.duels.CloseDuel(ctx, duel.DuelID)
	if err != nil {
		t.Fatalf("CloseDuel failed: %v", err)
	}
	if closed.Winner == nil || *closed.Winner != "alice" {
		t.Fatalf("tie should go to the earliest joiner, winner = %v", closed.Winner)
	}
}

func TestClaimRewards(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", duel.DuelID, 10)
	ts.expire(t, duel.DuelID)
	if _, err := ts.duels.CloseDuel(ctx, duel.DuelID); err != nil {
		t.Fatalf("CloseDuel failed: %v", err)
	}

	if _, err := ts.duels.ClaimRewards(ctx, "bob", duel.DuelID); !errors.Is(err, models.ErrNotWinner) {
		t.Errorf("non-winner claim: expected ErrNotWinner, got %v", err)
	}

	// Pool 20 at the default 5% fee: fee floors to 1, payout 19
	result, err := ts.duels.ClaimRewards(ctx, "alice", duel.DuelID)
	if err != nil {
		t.Fatalf("ClaimRewards failed: %v", err)
	}
	if result.PlatformFee != 1 || result.Payout != 19 {
		t.Errorf("fee=%d payout=%d, want 1/19", result.PlatformFee, result.Payout)
	}
	if got := ts.balance(t, "alice"); got != 19 {
		t.Errorf("alice balance after claim = %d, want 19", got)
	}
	if got := ts.balance(t, models.EscrowWallet); got != 1 {
		t.Errorf("escrow should retain the fee, balance = %d", got)
	}

	stats, err := ts.duels.GetPlatformStats(ctx)
	if err != nil {
		t.Fatalf("GetPlatformStats failed: %v", err)
	}
	if stats.TotalPrizeDistributed != 19 {
		t.Errorf("TotalPrizeDistributed = %d, want 19", stats.TotalPrizeDistributed)
	}

	if _, err := ts.duels.ClaimRewards(ctx, "alice", duel.DuelID); !errors.Is(err, models.ErrAlreadyClaimed) {
		t.Errorf("second claim: expected ErrAlreadyClaimed, got %v", err)
	}
	if got := ts.balance(t, "alice"); got != 19 {
		t.Errorf("failed second claim moved value, balance = %d", got)
	}
}

func TestClaimRequiresClosedDuel(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", duel.DuelID, 10)

	if _, err := ts.duels.ClaimRewards(ctx, "alice", duel.DuelID); !errors.Is(err, models.ErrDuelNotClosed) {
		t.Fatalf("claim on active duel: expected ErrDuelNotClosed, got %v", err)
	}
}

func TestSetPlatformFee(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if err := ts.duels.SetPlatformFee(ctx, models.MaxFeePercent+1); !errors.Is(err, models.ErrInvalidFeePercentage) {
		t.Errorf("fee above cap: expected ErrInvalidFeePercentage, got %v", err)
	}
	if err := ts.duels.SetPlatformFee(ctx, -1); !errors.Is(err, models.ErrInvalidFeePercentage) {
		t.Errorf("negative fee: expected ErrInvalidFeePercentage, got %v", err)
	}

	if err := ts.duels.SetPlatformFee(ctx, 0); err != nil {
		t.Fatalf("SetPlatformFee(0) failed: %v", err)
	}

	duel := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", duel.DuelID, 10)
	ts.expire(t, duel.DuelID)
	if _, err := ts.duels.CloseDuel(ctx, duel.DuelID); err != nil {
		t.Fatalf("CloseDuel failed: %v", err)
	}

	result, err := ts.duels.ClaimRewards(ctx, "alice", duel.DuelID)
	if err != nil {
		t.Fatalf("ClaimRewards failed: %v", err)
	}
	if result.PlatformFee != 0 || result.Payout != 20 {
		t.Errorf("zero-fee claim: fee=%d payout=%d, want 0/20", result.PlatformFee, result.Payout)
	}
}

func TestWithdrawFees(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	if _, err := ts.duels.WithdrawFees(ctx); !errors.Is(err, models.ErrNoAccruedFees) {
		t.Errorf("empty sweep: expected ErrNoAccruedFees, got %v", err)
	}

	duel := ts.createDuel(t, "alice", 100, 300, 2)
	ts.join(t, "bob", duel.DuelID, 100)
	ts.expire(t, duel.DuelID)
	if _, err := ts.duels.CloseDuel(ctx, duel.DuelID); err != nil {
		t.Fatalf("CloseDuel failed: %v", err)
	}
	if _, err := ts.duels.ClaimRewards(ctx, "alice", duel.DuelID); err != nil {
		t.Fatalf("ClaimRewards failed: %v", err)
	}

	// 5% of the 200 pool
	amount, err := ts.duels.WithdrawFees(ctx)
	if err != nil {
		t.Fatalf("WithdrawFees failed: %v", err)
	}
	if amount != 10 {
		t.Errorf("swept %d, want 10", amount)
	}
	if got := ts.balance(t, testTreasuryWallet); got != 10 {
		t.Errorf("treasury balance = %d, want 10", got)
	}
	if got := ts.balance(t, models.EscrowWallet); got != 0 {
		t.Errorf("escrow should be drained, balance = %d", got)
	}

	if _, err := ts.duels.WithdrawFees(ctx); !errors.Is(err, models.ErrNoAccruedFees) {
		t.Errorf("second sweep: expected ErrNoAccruedFees, got %v", err)
	}
}

func TestCancelDuelRefunds(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	duel := ts.createDuel(t, "alice", 40, 300, 4)
	if got := ts.balance(t, "alice"); got != 0 {
		t.Fatalf("alice balance after stake = %d, want 0", got)
	}

	if _, err := ts.duels.CancelDuel(ctx, "bob", duel.DuelID); !errors.Is(err, models.ErrOnlyCreator) {
		t.Errorf("non-creator cancel: expected ErrOnlyCreator, got %v", err)
	}

	cancelled, err := ts.duels.CancelDuel(ctx, "alice", duel.DuelID)
	if err != nil {
		t.Fatalf("CancelDuel failed: %v", err)
	}
	if cancelled.Status != models.DuelStatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, models.DuelStatusCancelled)
	}
	if got := ts.balance(t, "alice"); got != 40 {
		t.Errorf("alice balance after refund = %d, want 40", got)
	}
	if got := ts.balance(t, models.EscrowWallet); got != 0 {
		t.Errorf("escrow balance after refund = %d, want 0", got)
	}

	if _, err := ts.duels.CancelDuel(ctx, "alice", duel.DuelID); !errors.Is(err, models.ErrDuelNotOpen) {
		t.Errorf("cancel cancelled duel: expected ErrDuelNotOpen, got %v", err)
	}
}

func TestCancelDuelWithEnoughPlayers(t *testing.T) {
	ts := newTestServices(t)

	duel := ts.createDuel(t, "alice", 10, 300, 4)
	ts.join(t, "bob", duel.DuelID, 10)

	_, err := ts.duels.CancelDuel(context.Background(), "alice", duel.DuelID)
	if !errors.Is(err, models.ErrCannotCancel) {
		t.Fatalf("expected ErrCannotCancel, got %v", err)
	}
}

func TestCloseExpiredDuels(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	first := ts.createDuel(t, "alice", 10, 300, 2)
	ts.join(t, "bob", first.DuelID, 10)
	second := ts.createDuel(t, "carol", 10, 300, 2)
	ts.join(t, "dave", second.DuelID, 10)
	stillRunning := ts.createDuel(t, "erin", 10, 300, 2)
	ts.join(t, "frank", stillRunning.DuelID, 10)

	ts.expire(t, first.DuelID)
	ts.expire(t, second.DuelID)

	closed, err := ts.duels.CloseExpiredDuels(ctx, 100)
	if err != nil {
		t.Fatalf("CloseExpiredDuels failed: %v", err)
	}
	if closed != 2 {
		t.Errorf("closed %d duels, want 2", closed)
	}

	running, err := ts.duels.GetDuel(ctx, stillRunning.DuelID)
	if err != nil {
		t.Fatalf("GetDuel failed: %v", err)
	}
	if running.Status != models.DuelStatusActive {
		t.Errorf("in-window duel was closed, status = %s", running.Status)
	}
}

func TestDuelQueries(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	first := ts.createDuel(t, "alice", 10, 300, 2)
	second := ts.createDuel(t, "bob", 10, 300, 3)
	ts.join(t, "alice", second.DuelID, 10)

	active, err := ts.duels.GetActiveDuelIDs(ctx)
	if err != nil {
		t.Fatalf("GetActiveDuelIDs failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active duel count = %d, want 2", len(active))
	}

	mine, err := ts.duels.GetUserDuelIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserDuelIDs failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("alice duel count = %d, want 2", len(mine))
	}

	events, err := ts.duels.GetDuelEvents(ctx, first.DuelID)
	if err != nil {
		t.Fatalf("GetDuelEvents failed: %v", err)
	}
	if len(events) == 0 || events[0].Type != models.EventDuelCreated {
		t.Errorf("expected a %s event first, got %+v", models.EventDuelCreated, events)
	}
}
