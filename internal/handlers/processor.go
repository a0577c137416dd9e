package handlers

import (
	"context"
	"log"
	"sync"

	"github.com/nandigama/InvestSimulate2/internal/copytrade"
	"github.com/nandigama/InvestSimulate2/internal/engine"
	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

// TradeResult is the outcome of one submitted trade.
type TradeResult struct {
	Transaction models.Transaction
	Err         error
}

// tradeJob is one trade waiting in the queue.
type tradeJob struct {
	ctx       context.Context
	accountID int64
	request   models.TradeRequest
	resultCh  chan TradeResult // channel to send the result back
}

// TradeProcessor runs trades through a fixed worker pool. After a
// trader's own trade commits, the owning worker runs copy-trade fanout
// before reporting the result, matching the original request flow.
type TradeProcessor struct {
	workers    int
	tradeQueue chan tradeJob
	stopCh     chan struct{}
	wg         sync.WaitGroup

	store  store.Store
	engine *engine.Engine
	fanout *copytrade.Controller
	logger *log.Logger
}

// NewTradeProcessor creates a processor with the given pool size.
func NewTradeProcessor(workers int, st store.Store, eng *engine.Engine, fan *copytrade.Controller, logger *log.Logger) *TradeProcessor {
	return &TradeProcessor{
		workers:    workers,
		tradeQueue: make(chan tradeJob, 100),
		stopCh:     make(chan struct{}),
		store:      st,
		engine:     eng,
		fanout:     fan,
		logger:     logger,
	}
}

// Start starts the worker pool.
func (tp *TradeProcessor) Start() {
	for i := 0; i < tp.workers; i++ {
		tp.wg.Add(1)
		go tp.worker(i)
	}
	tp.logger.Printf("started %d trade workers", tp.workers)
}

// Stop gracefully stops all workers.
func (tp *TradeProcessor) Stop() {
	close(tp.stopCh)
	tp.wg.Wait()
	tp.logger.Println("trade processor stopped")
}

func (tp *TradeProcessor) worker(id int) {
	defer tp.wg.Done()

	for {
		select {
		case <-tp.stopCh:
			return

		case job := <-tp.tradeQueue:
			job.resultCh <- tp.process(job)
		}
	}
}

// process executes the trade and, for traders, fans it out. A fanout
// failure never alters the trader's own result.
func (tp *TradeProcessor) process(job tradeJob) TradeResult {
	txn, err := tp.engine.Execute(job.ctx, job.accountID, job.request)
	if err != nil {
		return TradeResult{Err: err}
	}

	account, err := tp.store.Account(job.ctx, job.accountID)
	if err != nil {
		tp.logger.Printf("trade %d committed but account reload failed: %v", txn.ID, err)
		return TradeResult{Transaction: txn}
	}

	if account.IsTrader {
		summary := tp.fanout.Fanout(job.ctx, txn, account)
		tp.logger.Printf("fanout %s for trade %d: executed=%d failed=%d skipped=%d",
			summary.BatchID, txn.ID, summary.Executed, summary.Failed, summary.Skipped)
	}

	return TradeResult{Transaction: txn}
}

// SubmitTrade queues a trade and waits for its result.
func (tp *TradeProcessor) SubmitTrade(ctx context.Context, accountID int64, req models.TradeRequest) TradeResult {
	resultCh := make(chan TradeResult, 1)

	tp.tradeQueue <- tradeJob{
		ctx:       ctx,
		accountID: accountID,
		request:   req,
		resultCh:  resultCh,
	}

	return <-resultCh
}
