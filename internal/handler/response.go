// Package handler 提供 HTTP 请求处理
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
)

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage 返回分页成功响应
func SuccessPage(c *gin.Context, list interface{}, page *repository.Pagination) {
	c.JSON(http.StatusOK, dto.NewPageResponse(list, page.Total, page.Page, page.PageSize))
}

// Error 返回业务错误响应
func Error(c *gin.Context, err *dto.BizError) {
	c.JSON(err.HTTPStatus, dto.NewErrorResponse(err))
}

// handleServiceError 处理服务层错误
func handleServiceError(c *gin.Context, err error) {
	var bizErr *dto.BizError
	if errors.As(err, &bizErr) {
		Error(c, bizErr)
		return
	}
	c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrInternalError))
}

// parsePagination 解析分页参数
func parsePagination(c *gin.Context) *repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return &repository.Pagination{Page: page, PageSize: pageSize}
}

// parseTimeRange 解析时间范围参数 (毫秒时间戳)
func parseTimeRange(c *gin.Context) *repository.TimeRange {
	start, _ := strconv.ParseInt(c.Query("start_time"), 10, 64)
	end, _ := strconv.ParseInt(c.Query("end_time"), 10, 64)
	return &repository.TimeRange{Start: start, End: end}
}
