package settlement

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

// noSleep 测试中跳过延迟
func noSleep(_ context.Context, _ time.Duration) error { return nil }

func newTestGateway(seed int64) *SimulatedGateway {
	g := NewSimulatedGateway(seed)
	g.sleep = noSleep
	return g
}

func TestSimulatedGateway_ChainHashFormat(t *testing.T) {
	g := newTestGateway(1)
	event := &model.OutboxEvent{EventType: model.OutboxEventSendToChain}

	var result *Result
	for i := 0; i < 50; i++ {
		r, err := g.Settle(context.Background(), event)
		if err == nil {
			result = r
			break
		}
	}

	assert.NotNil(t, result)
	assert.True(t, strings.HasPrefix(result.TxHash, "0x"))
	assert.Len(t, result.TxHash, 66)
	assert.Equal(t, NetworkSimulated, result.Network)
}

func TestSimulatedGateway_IPFSHashFormat(t *testing.T) {
	g := newTestGateway(1)
	event := &model.OutboxEvent{EventType: model.OutboxEventPushToIPFS}

	var result *Result
	for i := 0; i < 50; i++ {
		r, err := g.Settle(context.Background(), event)
		if err == nil {
			result = r
			break
		}
	}

	assert.NotNil(t, result)
	assert.True(t, strings.HasPrefix(result.TxHash, "Qm"))
	assert.Equal(t, 46, len(result.TxHash))
}

func TestSimulatedGateway_FailureRate(t *testing.T) {
	g := newTestGateway(42)
	event := &model.OutboxEvent{EventType: model.OutboxEventSendToChain}

	failures := 0
	const rounds = 1000
	for i := 0; i < rounds; i++ {
		if _, err := g.Settle(context.Background(), event); err != nil {
			failures++
		}
	}

	// 5% 目标，给偶然波动留余量
	assert.Greater(t, failures, 20)
	assert.Less(t, failures, 100)
}

func TestSimulatedGateway_UnknownEventType(t *testing.T) {
	g := newTestGateway(1)
	event := &model.OutboxEvent{EventType: model.OutboxEventType("BOGUS")}

	result, err := g.Settle(context.Background(), event)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestSimulatedGateway_ContextCancelled(t *testing.T) {
	g := NewSimulatedGateway(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	event := &model.OutboxEvent{EventType: model.OutboxEventSendToChain}
	result, err := g.Settle(ctx, event)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedGateway_Deterministic(t *testing.T) {
	event := &model.OutboxEvent{EventType: model.OutboxEventSendToChain}

	g1 := newTestGateway(7)
	g2 := newTestGateway(7)

	for i := 0; i < 20; i++ {
		r1, err1 := g1.Settle(context.Background(), event)
		r2, err2 := g2.Settle(context.Background(), event)
		assert.Equal(t, err1 == nil, err2 == nil)
		if err1 == nil {
			assert.Equal(t, r1.TxHash, r2.TxHash)
		}
	}
}
