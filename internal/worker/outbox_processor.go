// Package worker 后台处理器
package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/SagarBarate/CleanNFT-sub001/internal/metrics"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
	"github.com/SagarBarate/CleanNFT-sub001/internal/settlement"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// OutboxProcessorConfig 处理器配置
type OutboxProcessorConfig struct {
	PollInterval time.Duration // 轮询间隔
	BatchSize    int           // 单批事件数
	EventTimeout time.Duration // 单事件结算超时
}

// OutboxProcessor outbox 事件处理器
// 周期拉取待处理事件，经结算网关执行，结果落地为 blockchain_txs 行。
// 认领即终态，结算失败不自动重试，由管理端重新入队。
type OutboxProcessor struct {
	outboxRepo repository.OutboxRepository
	txRepo     repository.TxRepository
	nftService service.NftService
	gateway    settlement.Gateway
	cfg        OutboxProcessorConfig

	stopCh chan struct{}
	doneWg sync.WaitGroup
}

// NewOutboxProcessor 创建处理器
func NewOutboxProcessor(
	outboxRepo repository.OutboxRepository,
	txRepo repository.TxRepository,
	nftService service.NftService,
	gateway settlement.Gateway,
	cfg OutboxProcessorConfig,
) *OutboxProcessor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 10 * time.Second
	}
	return &OutboxProcessor{
		outboxRepo: outboxRepo,
		txRepo:     txRepo,
		nftService: nftService,
		gateway:    gateway,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
	}
}

// Start 启动轮询循环
func (p *OutboxProcessor) Start(ctx context.Context) {
	p.doneWg.Add(1)
	go p.loop(ctx)
	logger.Info("outbox processor started",
		"poll_interval", p.cfg.PollInterval.String(), "batch_size", p.cfg.BatchSize)
}

// Stop 停止并等待当前批次完成
func (p *OutboxProcessor) Stop() {
	close(p.stopCh)
	p.doneWg.Wait()
	logger.Info("outbox processor stopped")
}

func (p *OutboxProcessor) loop(ctx context.Context) {
	defer p.doneWg.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch 处理一批事件，返回处理数量
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	events, err := p.outboxRepo.FetchAndClaim(ctx, p.cfg.BatchSize)
	if err != nil {
		logger.Error("fetch outbox events failed", "error", err)
		return 0
	}

	for _, event := range events {
		p.processOne(ctx, event)
	}

	if pending, err := p.outboxRepo.CountPending(ctx); err == nil {
		metrics.OutboxPendingGauge.Set(float64(pending))
	}

	return len(events)
}

// processOne 单事件结算: 提交网关、记录交易行、完结关联聚合
func (p *OutboxProcessor) processOne(ctx context.Context, event *model.OutboxEvent) {
	// 单事件崩溃不拖垮整批，更不拖垮轮询协程
	defer func() {
		if r := recover(); r != nil {
			metrics.OutboxEventsTotal.WithLabelValues(string(event.EventType), "failed").Inc()
			logger.Error("settle outbox event panic",
				"event_id", event.ID, "event_type", event.EventType,
				"panic", r, "stack", string(debug.Stack()))
		}
	}()

	start := time.Now()

	settleCtx, cancel := context.WithTimeout(ctx, p.cfg.EventTimeout)
	result, err := p.gateway.Settle(settleCtx, event)
	cancel()

	elapsed := time.Since(start)
	metrics.SettlementDuration.WithLabelValues(string(event.EventType)).Observe(elapsed.Seconds())

	now := time.Now().UnixMilli()
	tx := &model.BlockchainTx{
		RelatedTable: event.Aggregate,
		RelatedID:    event.AggregateID,
		Network:      p.gateway.Network(),
		SubmittedAt:  start.UnixMilli(),
	}

	if err != nil {
		tx.Status = model.BlockchainTxStatusFailed
		tx.Error = truncateError(err)
		metrics.OutboxEventsTotal.WithLabelValues(string(event.EventType), "failed").Inc()
		logger.Warn("settlement failed",
			"event_id", event.ID, "event_type", event.EventType,
			"aggregate_id", event.AggregateID, "error", err)
	} else {
		tx.Status = model.BlockchainTxStatusConfirmed
		tx.TxHash = result.TxHash
		tx.ConfirmedAt = &now
		metrics.OutboxEventsTotal.WithLabelValues(string(event.EventType), "confirmed").Inc()
		logger.Info("settlement confirmed",
			"event_id", event.ID, "event_type", event.EventType,
			"aggregate_id", event.AggregateID, "tx_hash", result.TxHash,
			"elapsed_ms", elapsed.Milliseconds())
	}

	if cerr := p.txRepo.Create(ctx, tx); cerr != nil {
		logger.Error("record blockchain tx failed", "event_id", event.ID, "error", cerr)
	}

	p.finalizeAggregate(ctx, event, err == nil)
}

// finalizeAggregate 链上结算结果回写认领单
func (p *OutboxProcessor) finalizeAggregate(ctx context.Context, event *model.OutboxEvent, success bool) {
	if event.Aggregate != model.AggregateNftClaims {
		return
	}

	status := model.NftClaimStatusCompleted
	if !success {
		status = model.NftClaimStatusFailed
	}
	if err := p.nftService.FinalizeClaim(ctx, service.ActorSystem, event.AggregateID, status); err != nil {
		logger.Error("finalize claim failed",
			"claim_id", event.AggregateID, "status", status.String(), "error", err)
	}
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}
