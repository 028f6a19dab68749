package settlement

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

const NetworkEthereum = "ethereum"

const settleGasLimit = 120000

// EthereumConfig 以太坊网关配置
type EthereumConfig struct {
	RPCURL          string
	PrivateKey      string // hex 编码，不带 0x 前缀
	ChainID         int64
	ContractAddress string
}

// EthereumGateway 以太坊结算网关
// 将事件负载作为 calldata 提交到登记合约
type EthereumGateway struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
	to         common.Address
	chainID    *big.Int
}

// NewEthereumGateway 创建以太坊网关
func NewEthereumGateway(ctx context.Context, cfg *EthereumConfig) (*EthereumGateway, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url is required")
	}
	if cfg.PrivateKey == "" {
		return nil, errors.New("private key is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, errors.New("invalid contract address")
	}

	privateKey, err := crypto.HexToECDSA(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, err
		}
	}

	return &EthereumGateway{
		client:     client,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
		to:         common.HexToAddress(cfg.ContractAddress),
		chainID:    chainID,
	}, nil
}

func (g *EthereumGateway) Network() string {
	return NetworkEthereum
}

func (g *EthereumGateway) Settle(ctx context.Context, event *model.OutboxEvent) (*Result, error) {
	if !event.EventType.Valid() {
		return nil, ErrUnknownEventType
	}

	nonce, err := g.client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return nil, err
	}

	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTransaction(nonce, g.to, big.NewInt(0), settleGasLimit, gasPrice, []byte(event.Payload))
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(g.chainID), g.privateKey)
	if err != nil {
		return nil, err
	}

	if err := g.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, err
	}

	return &Result{
		TxHash:  signedTx.Hash().Hex(),
		Network: NetworkEthereum,
	}, nil
}

// Close 释放底层 RPC 连接
func (g *EthereumGateway) Close() {
	g.client.Close()
}
