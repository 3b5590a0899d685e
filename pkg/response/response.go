// Package response 统一的 HTTP JSON 响应格式
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/simulatorcalc/pkg/utils"
)

// Body 响应体
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Success 200 响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Code: "OK", Message: "success", Data: data})
}

// Created 201 响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Code: "OK", Message: "created", Data: data})
}

// ErrorWithStatus 指定状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, Body{Code: codeFor(status), Message: message, Details: details})
}

// Error 输出 ErrorWrapper，非 ErrorWrapper 按 500 处理
func Error(c *gin.Context, status int, err error) {
	var ew *utils.ErrorWrapper
	if errors.As(err, &ew) {
		c.AbortWithStatusJSON(status, Body{Code: ew.Code, Message: ew.Message, Details: ew.Details})
		return
	}
	ErrorWithStatus(c, status, err.Error(), nil)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL"
	}
}
