package jobs

import (
	"context"
	"log"
	"strings"
	"time"

	"flipduel/internal/feeds"
	"flipduel/internal/models"
	"flipduel/internal/services"
)

// PriceFeedJob polls an external marketplace for floor prices and
// pushes them into the oracle as a configured updater identity.
type PriceFeedJob struct {
	client       *feeds.Client
	priceService *services.PriceService
	// updaterWallet must be in the oracle's authorized-updater set.
	updaterWallet string
	collections   []string
	interval      time.Duration
	stopChan      chan struct{}
}

func NewPriceFeedJob(
	client *feeds.Client,
	priceService *services.PriceService,
	updaterWallet string,
	collections string,
	interval time.Duration,
) *PriceFeedJob {
	var ids []string
	for _, id := range strings.Split(collections, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}

	return &PriceFeedJob{
		client:        client,
		priceService:  priceService,
		updaterWallet: updaterWallet,
		collections:   ids,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the polling loop
func (pf *PriceFeedJob) Start() {
	log.Printf("[PriceFeed] Starting price feed job (interval: %v, collections: %d)", pf.interval, len(pf.collections))

	ticker := time.NewTicker(pf.interval)
	defer ticker.Stop()

	// Push once immediately so duels do not run on fallback prices
	// until the first tick.
	pf.pollOnce()

	for {
		select {
		case <-ticker.C:
			pf.pollOnce()
		case <-pf.stopChan:
			log.Println("[PriceFeed] Stopping price feed job")
			return
		}
	}
}

// Stop stops the polling loop
func (pf *PriceFeedJob) Stop() {
	close(pf.stopChan)
}

func (pf *PriceFeedJob) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, collectionID := range pf.collections {
		quotes, err := pf.client.GetCollectionPrices(ctx, collectionID)
		if err != nil {
			log.Printf("[PriceFeed] Error fetching %s: %v", collectionID, err)
			continue
		}

		updates := make([]models.PriceUpdate, 0, len(quotes))
		for _, quote := range quotes {
			price, err := feeds.ToBaseUnits(quote.FloorPrice)
			if err != nil || price <= 0 {
				log.Printf("[PriceFeed] Skipping %s: bad quote %q", quote.AssetID, quote.FloorPrice)
				continue
			}
			updates = append(updates, models.PriceUpdate{
				AssetID: quote.AssetID,
				Price:   price,
				Source:  "marketplace:" + collectionID,
			})
		}

		// Batches are capped by the oracle; push in chunks.
		for start := 0; start < len(updates); start += models.MaxBatchUpdateSize {
			end := start + models.MaxBatchUpdateSize
			if end > len(updates) {
				end = len(updates)
			}
			if err := pf.priceService.BatchUpdatePrices(ctx, pf.updaterWallet, updates[start:end]); err != nil {
				log.Printf("[PriceFeed] Batch push failed for %s: %v", collectionID, err)
			}
		}
	}
}
