package app

import (
	"context"
	"sync"
	"time"

	blockchainDomain "github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/logger"
)

// Runner drives a scan on every new block and hands the results to the
// reporter.
type Runner struct {
	blocks      BlockSource
	scanner     *Scanner
	reporter    Reporter
	scanTimeout time.Duration
	logger      logger.LoggerInterface

	wg      sync.WaitGroup
	stopped sync.Once
}

// NewRunner creates a Runner. A non-positive scanTimeout disables the
// per-scan deadline.
func NewRunner(blocks BlockSource, scanner *Scanner, reporter Reporter, scanTimeout time.Duration, log logger.LoggerInterface) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		blocks:      blocks,
		scanner:     scanner,
		reporter:    reporter,
		scanTimeout: scanTimeout,
		logger:      log,
	}
}

// Start subscribes to new blocks and begins scanning in the background.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info(ctx, "starting arbitrage runner", "tokens", len(r.scanner.Tokens()))

	if err := r.reporter.Start(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "start reporter")
	}

	blocks, err := r.blocks.SubscribeBlocks(ctx)
	if err != nil {
		return err
	}

	r.wg.Add(1)
	go r.run(ctx, blocks)

	return nil
}

// RunOnce scans every token once against block, which may be nil, and
// reports the results.
func (r *Runner) RunOnce(ctx context.Context, block *blockchainDomain.Block) ScanSummary {
	ctx, cancel := r.scanContext(ctx)
	defer cancel()

	opps, summary := r.scanner.ScanAll(ctx, block)
	for _, opp := range opps {
		r.reporter.Report(opp)
	}
	r.reporter.ReportScan(summary)
	return summary
}

func (r *Runner) run(ctx context.Context, blocks <-chan *blockchainDomain.Block) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "runner stopping", "reason", ctx.Err())
			return
		case block, ok := <-blocks:
			if !ok {
				r.logger.Warn(ctx, "block stream closed")
				return
			}
			if block == nil {
				continue
			}
			block = latest(block, blocks)

			r.reporter.UpdateConnectionStatus(blockchainDomain.ConnectionStatus{
				State:     r.blocks.ConnectionState(),
				LastBlock: block.Number,
			})
			r.logger.Debug(ctx, "processing block", "number", block.Number, "hash", block.Hash.Hex())
			r.RunOnce(ctx, block)
		}
	}
}

// latest drains blocks that queued up during the previous scan so the next
// scan prices the newest state.
func latest(block *blockchainDomain.Block, blocks <-chan *blockchainDomain.Block) *blockchainDomain.Block {
	for {
		select {
		case next, ok := <-blocks:
			if !ok {
				return block
			}
			if next != nil {
				block = next
			}
		default:
			return block
		}
	}
}

func (r *Runner) scanContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.scanTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.scanTimeout)
}

// Stop waits for the scan loop to exit and shuts the reporter down. The
// loop exits once the context passed to Start is cancelled.
func (r *Runner) Stop() error {
	var err error
	r.stopped.Do(func() {
		r.wg.Wait()
		err = r.reporter.Stop()
	})
	return err
}
