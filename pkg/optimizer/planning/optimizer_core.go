package planning

import (
	"context"
	"fmt"

	"github.com/kasuganosora/sqlexec/pkg/optimizer"
	"github.com/kasuganosora/sqlexec/pkg/resource/domain"
)

// OptimizationContext 优化上下文
type OptimizationContext struct {
	DataSource domain.DataSource
	TableInfo  map[string]*domain.TableInfo
	Stats      map[string]*optimizer.Statistics
	CostModel  optimizer.CostModel
}

// NewOptimizationContext 创建优化上下文
func NewOptimizationContext(dataSource domain.DataSource) *OptimizationContext {
	return &OptimizationContext{
		DataSource: dataSource,
		TableInfo:  make(map[string]*domain.TableInfo),
		Stats:      make(map[string]*optimizer.Statistics),
	}
}

// Optimizer 优化器
type Optimizer struct {
	rules      RuleSet
	costModel  optimizer.CostModel
	dataSource domain.DataSource
}

// NewOptimizer 创建优化器
func NewOptimizer(dataSource domain.DataSource) *Optimizer {
	return &Optimizer{
		rules:     DefaultRuleSet(),
		costModel:  optimizer.NewDefaultCostModel(),
		dataSource: dataSource,
	}
}

// Optimize 优化查询计划（返回可序列化的Plan）
func (o *Optimizer) Optimize(ctx context.Context, stmt interface{}) (interface{}, error) {
	// 注意：这里简化实现，完整实现需要根据parser.SQLStatement类型处理
	return nil, fmt.Errorf("optimization not yet implemented")
}
