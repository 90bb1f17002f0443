package types

// 默认参数常量定义
var (
	Tolerance         = 1e-8 // 收敛容差(步长/代价/梯度)
	ResidualTolerance = 1e-6 // 接受解时允许的最大杆长残差
	MaxIterations     = 100  // 最大迭代次数
	DampingFactor     = 1e-3 // 初始阻尼因子(相对 JᵀJ 对角线最大值)
	MinDampingFactor  = 1e-15
	MaxDampingFactor  = 1e15
	MaxSubSteps       = 6 // 单帧失败后最多二分步进次数
)
