package workflow

import (
	"context"
	"os"
	"time"

	"bitbucket.org/terrafocus/lease_backend/appctx"
	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const contractExpiryLockKey = "ContractExpiryWorker"

// ContractExpiryWorker sweeps active contracts past their end date into
// Expired. Only one instance sweeps at a time (redis lock); the others skip
// the interval.
type ContractExpiryWorker struct {
	Logger       *logrus.Logger
	PollInterval time.Duration
}

func NewContractExpiryWorker(logger *logrus.Logger) *ContractExpiryWorker {
	return &ContractExpiryWorker{
		Logger:       logger,
		PollInterval: expiryIntervalFromEnv(),
	}
}

func expiryIntervalFromEnv() time.Duration {
	raw := os.Getenv("CONTRACT_EXPIRY_INTERVAL")
	if raw == "" {
		return 10 * time.Minute
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return 10 * time.Minute
	}
	return interval
}

func (w *ContractExpiryWorker) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.PollInterval):
		}
	}
}

func (w *ContractExpiryWorker) sweepOnce(ctx context.Context) {

	locker := config.GetRedisLock()
	if locker == nil {
		return
	}
	lock, err := locker.Obtain(ctx, contractExpiryLockKey, w.PollInterval, nil)
	if err == redislock.ErrNotObtained {
		// another instance holds the sweep
		return
	} else if err != nil {
		config.LogError(w.Logger, "workflow", "ContractExpiryWorker", "obtaining sweep lock", nil, err)
		return
	}
	defer lock.Release(context.Background())

	// the sweep crosses companies, so company scoping is disabled
	sweepCtx := appctx.Set(ctx, appctx.ContextKeySkipCompanyScope, true)
	sweepCtx = appctx.Set(sweepCtx, appctx.ContextKeyUserName, "System")

	expired, err := models.ExpireOverdueContracts(sweepCtx)
	if err != nil {
		config.LogError(w.Logger, "workflow", "ContractExpiryWorker", "expiring overdue contracts", nil, err)
		return
	}
	if expired > 0 {
		w.Logger.WithFields(logrus.Fields{
			"module":  "workflow",
			"expired": expired,
		}).Info("contract expiry sweep completed")
	}
}
