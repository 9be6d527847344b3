package jobs

import (
	"context"
	"log"
	"time"

	"flipduel/internal/services"
)

// DuelCloser automatically closes duels whose contest window has passed
type DuelCloser struct {
	duelService *services.DuelService
	interval    time.Duration
	stopChan    chan struct{}
}

// NewDuelCloser creates a new duel closer job
func NewDuelCloser(duelService *services.DuelService, interval time.Duration) *DuelCloser {
	return &DuelCloser{
		duelService: duelService,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the close loop
func (dc *DuelCloser) Start() {
	log.Printf("[DuelCloser] Starting duel close job (interval: %v)", dc.interval)

	ticker := time.NewTicker(dc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			dc.closeExpiredDuels()
		case <-dc.stopChan:
			log.Println("[DuelCloser] Stopping duel close job")
			return
		}
	}
}

// Stop stops the close loop
func (dc *DuelCloser) Stop() {
	close(dc.stopChan)
}

func (dc *DuelCloser) closeExpiredDuels() {
	ctx := context.Background()

	closed, err := dc.duelService.CloseExpiredDuels(ctx, 100)
	if err != nil {
		log.Printf("[DuelCloser] Error closing expired duels: %v", err)
		return
	}

	if closed > 0 {
		log.Printf("[DuelCloser] Closed %d expired duels", closed)
	}
}
