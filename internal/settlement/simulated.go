package settlement

import (
	"context"
	"encoding/hex"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

const NetworkSimulated = "simulated"

// 模拟结算的固定失败原因，便于在交易记录中归类
var (
	simChainErrors = []error{
		errors.New("gas estimation failed"),
		errors.New("nonce conflict detected"),
		errors.New("rpc timeout"),
	}
	simIPFSErrors = []error{
		errors.New("pinning service unavailable"),
		errors.New("content hash mismatch"),
	}
)

// SimulatedGateway 模拟结算网关
// 按事件类型注入随机延迟与小概率失败:
//
//	SEND_TO_CHAIN: 1-3s 延迟，约 5% 失败
//	PUSH_TO_IPFS:  0.5-1.5s 延迟，约 2% 失败
type SimulatedGateway struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSimulatedGateway 创建模拟网关
func NewSimulatedGateway(seed int64) *SimulatedGateway {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedGateway{
		rng:   rand.New(rand.NewSource(seed)),
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *SimulatedGateway) Network() string {
	return NetworkSimulated
}

func (g *SimulatedGateway) Settle(ctx context.Context, event *model.OutboxEvent) (*Result, error) {
	var (
		minDelay, maxDelay time.Duration
		failPercent        int
		failures           []error
	)

	switch event.EventType {
	case model.OutboxEventSendToChain:
		minDelay, maxDelay = time.Second, 3*time.Second
		failPercent = 5
		failures = simChainErrors
	case model.OutboxEventPushToIPFS:
		minDelay, maxDelay = 500*time.Millisecond, 1500*time.Millisecond
		failPercent = 2
		failures = simIPFSErrors
	default:
		return nil, ErrUnknownEventType
	}

	g.mu.Lock()
	delay := minDelay + time.Duration(g.rng.Int63n(int64(maxDelay-minDelay)))
	roll := g.rng.Intn(100)
	failure := failures[g.rng.Intn(len(failures))]
	hash := g.randomHash(event.EventType)
	g.mu.Unlock()

	if err := g.sleep(ctx, delay); err != nil {
		return nil, err
	}

	if roll < failPercent {
		return nil, failure
	}

	return &Result{TxHash: hash, Network: NetworkSimulated}, nil
}

// randomHash 生成伪交易哈希，调用方需持有 g.mu
func (g *SimulatedGateway) randomHash(eventType model.OutboxEventType) string {
	buf := make([]byte, 32)
	g.rng.Read(buf)
	if eventType == model.OutboxEventPushToIPFS {
		return "Qm" + hex.EncodeToString(buf)[:44]
	}
	return "0x" + hex.EncodeToString(buf)
}
