// Package settlement 对接外部结算通道 (链上 / IPFS)
package settlement

import (
	"context"
	"errors"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var ErrUnknownEventType = errors.New("unknown settlement event type")

// Result 结算结果
type Result struct {
	TxHash  string // 交易哈希或内容寻址哈希
	Network string // 结算网络标识
}

// Gateway 结算网关
// 对 outbox 事件执行外部结算，实现必须尊重 ctx 超时
type Gateway interface {
	Settle(ctx context.Context, event *model.OutboxEvent) (*Result, error)
	Network() string
}
