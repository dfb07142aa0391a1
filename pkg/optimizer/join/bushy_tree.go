package join

import (
	"fmt"

	"github.com/kasuganosora/sqlexec/pkg/optimizer/cost"
)

// BushyJoinTreeBuilder Bushy Join Tree构建器
// 支持非线性（bushy）的JOIN树，提升多表JOIN性能
type BushyJoinTreeBuilder struct {
	costModel   *cost.AdaptiveCostModel
	estimator   interface{} // 使用 interface{} 避免循环导入
	maxBushiness int       // 最大Bushiness参数
}

// NewBushyJoinTreeBuilder 创建Bushy JOIN Tree构建器
func NewBushyJoinTreeBuilder(costModel *cost.AdaptiveCostModel, estimator interface{}, maxBushiness int) *BushyJoinTreeBuilder {
	return &BushyJoinTreeBuilder{
		costModel:   costModel,
		estimator:   estimator,
		maxBushiness: maxBushiness,
	}
}

// BuildBushyTree 构建Bushy JOIN Tree
func (bjtb *BushyJoinTreeBuilder) BuildBushyTree(tables []string, joinNodes interface{}) interface{} {
	n := len(tables)
	if n < 3 {
		// 少于3个表，线性树就是最优的
		return nil
	}

	fmt.Printf("  [BUSHY TREE] Building bushy tree for %d tables (maxBushiness=%d)\n", n, bjtb.maxBushiness)

	// 简化实现：暂时返回nil
	// 完整的Bushy Tree实现比较复杂，需要：
	// 1. 使用动态规划枚举所有JOIN顺序
	// 2. 考虑非线性（bushy）的连接方式
	// 3. 基于成本模型选择最优方案

	return nil
}

// Explain 解释Bushy Tree构建器
func (bjtb *BushyJoinTreeBuilder) Explain() string {
	return fmt.Sprintf(
		"BushyJoinTreeBuilder(maxBushiness=%d)",
		bjtb.maxBushiness,
	)
}
