// Package nonce 提供投递事件的幂等键派生
package nonce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Mode 随机数缺省策略
type Mode string

const (
	// ModeRequired 调用方必须携带 nonce，否则拒绝
	ModeRequired Mode = "required"
	// ModeBestEffort 缺省时生成随机 nonce
	// 注意: 未回传原 nonce 的重试请求不会被去重
	ModeBestEffort Mode = "best_effort"
)

// ErrNonceRequired 缺少 nonce
var ErrNonceRequired = errors.New("nonce is required")

// KeyLength 幂等键长度 (十六进制字符)
const KeyLength = 32

// Deriver 幂等键派生器
type Deriver struct {
	mode Mode
}

// NewDeriver 创建派生器
func NewDeriver(mode Mode) *Deriver {
	if mode != ModeRequired {
		mode = ModeBestEffort
	}
	return &Deriver{mode: mode}
}

// Mode 返回当前策略
func (d *Deriver) Mode() Mode {
	return d.mode
}

// Derive 基于 设备ID|时间戳|nonce 派生确定性幂等键
// nonce 为空时按 Mode 处理: required 模式返回 ErrNonceRequired,
// best_effort 模式用随机字节填充
func (d *Deriver) Derive(deviceHwID string, occurredAt time.Time, nonce string) (string, error) {
	if nonce == "" {
		if d.mode == ModeRequired {
			return "", ErrNonceRequired
		}
		var buf [16]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("generate random nonce: %w", err)
		}
		nonce = hex.EncodeToString(buf[:])
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", deviceHwID, occurredAt.UnixMilli(), nonce)))
	return hex.EncodeToString(sum[:])[:KeyLength], nil
}
