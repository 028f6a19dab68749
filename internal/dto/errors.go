// Package dto 提供数据传输对象定义
package dto

import "net/http"

// BizError 业务错误
type BizError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

// Error 实现 error 接口
func (e *BizError) Error() string {
	return e.Message
}

// 通用错误 (10xxx)
var (
	ErrInvalidParams     = &BizError{10001, "INVALID_PARAMS", http.StatusBadRequest}
	ErrUnauthorized      = &BizError{10002, "UNAUTHORIZED", http.StatusUnauthorized}
	ErrForbidden         = &BizError{10003, "FORBIDDEN", http.StatusForbidden}
	ErrMissingAuthHeader = &BizError{10004, "MISSING_AUTH_HEADER", http.StatusUnauthorized}
	ErrInvalidAuthFormat = &BizError{10005, "INVALID_AUTH_FORMAT", http.StatusUnauthorized}
	ErrInvalidCredential = &BizError{10006, "INVALID_CREDENTIALS", http.StatusUnauthorized}
	ErrUserNotFound      = &BizError{10007, "USER_NOT_FOUND", http.StatusNotFound}
	ErrUserDisabled      = &BizError{10008, "USER_DISABLED", http.StatusForbidden}
)

// 投递错误 (11xxx)
var (
	ErrNonceRequired    = &BizError{11001, "NONCE_REQUIRED", http.StatusBadRequest}
	ErrInvalidSource    = &BizError{11002, "INVALID_SOURCE", http.StatusBadRequest}
	ErrInvalidWeight    = &BizError{11003, "INVALID_WEIGHT", http.StatusBadRequest}
	ErrDeviceNotFound   = &BizError{11004, "DEVICE_NOT_FOUND", http.StatusNotFound}
	ErrStationNotFound  = &BizError{11005, "STATION_NOT_FOUND", http.StatusNotFound}
	ErrEventNotFound    = &BizError{11006, "EVENT_NOT_FOUND", http.StatusNotFound}
	ErrEventTimeout     = &BizError{11007, "EVENT_TIMEOUT", http.StatusGatewayTimeout}
	ErrInvalidOccurTime = &BizError{11008, "INVALID_OCCURRED_AT", http.StatusBadRequest}
)

// 积分错误 (12xxx)
var (
	ErrRuleNotFound      = &BizError{12001, "RULE_NOT_FOUND", http.StatusNotFound}
	ErrInvalidAdjustment = &BizError{12002, "INVALID_ADJUSTMENT", http.StatusBadRequest}
	ErrDuplicateAward    = &BizError{12003, "DUPLICATE_AWARD", http.StatusConflict}
)

// NFT 错误 (13xxx)
var (
	ErrDefinitionNotFound = &BizError{13001, "DEFINITION_NOT_FOUND", http.StatusNotFound}
	ErrNoMintAvailable    = &BizError{13002, "NO_MINT_AVAILABLE", http.StatusConflict}
	ErrClaimNotFound      = &BizError{13003, "CLAIM_NOT_FOUND", http.StatusNotFound}
	ErrClaimAlreadyFinal  = &BizError{13004, "CLAIM_ALREADY_FINALIZED", http.StatusConflict}
	ErrAlreadyClaimed     = &BizError{13005, "ALREADY_CLAIMED", http.StatusConflict}
)

// 结算错误 (14xxx)
var (
	ErrTxNotFound     = &BizError{14001, "TX_NOT_FOUND", http.StatusNotFound}
	ErrTxNotRetryable = &BizError{14002, "TX_NOT_RETRYABLE", http.StatusBadRequest}
)

// 系统错误 (20xxx)
var (
	ErrInternalError      = &BizError{20001, "INTERNAL_ERROR", http.StatusInternalServerError}
	ErrServiceUnavailable = &BizError{20002, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable}
	ErrTimeout            = &BizError{20003, "TIMEOUT", http.StatusGatewayTimeout}
)

// WithMessage 返回带自定义消息的错误副本
func (e *BizError) WithMessage(msg string) *BizError {
	return &BizError{
		Code:       e.Code,
		Message:    msg,
		HTTPStatus: e.HTTPStatus,
	}
}

// NewBizError 创建自定义业务错误
func NewBizError(code int, message string, httpStatus int) *BizError {
	return &BizError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}
