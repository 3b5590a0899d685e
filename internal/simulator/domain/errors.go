// Package domain 投资模拟服务领域层
// 1) 利率期限结构（ETTJ）与取值方式
// 2) 指数插值引擎
// 3) 按工作日复利的投资模拟与累退税率表
package domain

import "errors"

var (
	// ErrInvalidInput 数值输入非法（锚点天数相同、目标天数为 0、本金非正、天数为负等），不可重试
	ErrInvalidInput = errors.New("invalid input")
	// ErrCurveData 收益率曲线数据非法（空曲线、重复期限点）
	ErrCurveData = errors.New("invalid curve data")
	// ErrCurveNotFound 指定指数没有可用的曲线快照
	ErrCurveNotFound = errors.New("curve not found")
)
