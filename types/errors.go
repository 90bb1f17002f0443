package types

import (
	"fmt"
	"strings"
)

// ConfigurationError 拓扑或自由度校验失败
type ConfigurationError struct {
	Msg    string    // 错误描述
	Joints []JointID // 相关关节
}

func (e *ConfigurationError) Error() string { return e.Msg }

// NewConfigurationError 创建配置错误
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// PreconditionError 操作对象缺少必要属性
type PreconditionError struct {
	Op  string // 操作名
	Msg string
}

func (e *PreconditionError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

// SolverError 数值求解未收敛
type SolverError struct {
	Angle       float64   // 目标驱动角
	Status      string    // 优化器状态
	Iterations  int       // 迭代次数
	MaxResidual float64   // 最大杆长残差
	Residuals   []float64 // 残差向量
	Err         error     // 优化器原始错误
}

func (e *SolverError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "solver failed at angle %.6f rad: status=%s iter=%d max residual=%.3e",
		e.Angle, e.Status, e.Iterations, e.MaxResidual)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SolverError) Unwrap() error { return e.Err }
