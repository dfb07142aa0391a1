package optimizer

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"
)

// Index 索引定义
type Index struct {
	Name       string
	TableName  string
	Columns    []string
	Unique     bool
	Primary    bool
	Cardinality int64 // 基数（唯一值数量）
}

// IndexManager 索引管理器
type IndexManager struct {
	mu      sync.RWMutex
	indices map[string][]*Index // table_name -> indices
	stats   map[string]*IndexStats // index_name -> stats
}

// IndexStats 索引统计信息
type IndexStats struct {
	Name         string
	HitCount     int64
	MissCount    int64
	AvgAccessTime time.Duration
	LastAccessed time.Time
}

// NewIndexManager 创建索引管理器
func NewIndexManager() *IndexManager {
	return &IndexManager{
		indices: make(map[string][]*Index),
		stats:   make(map[string]*IndexStats),
	}
}

// AddIndex 添加索引
func (im *IndexManager) AddIndex(index *Index) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.indices[index.TableName] = append(im.indices[index.TableName], index)
	im.stats[index.Name] = &IndexStats{
		Name:         index.Name,
		LastAccessed: time.Now(),
	}
}

// GetIndices 获取表的所有索引
func (im *IndexManager) GetIndices(tableName string) []*Index {
	im.mu.RLock()
	defer im.mu.RUnlock()

	if indices, ok := im.indices[tableName]; ok {
		result := make([]*Index, len(indices))
		copy(result, indices)
		return result
	}
	return nil
}

// FindBestIndex 查找最佳索引
func (im *IndexManager) FindBestIndex(tableName string, columns []string) *Index {
	im.mu.RLock()
	defer im.mu.RUnlock()

	indices, ok := im.indices[tableName]
	if !ok {
		return nil
	}

	// 寻找列数匹配且基数最高的索引
	var bestIndex *Index
	maxCardinality := int64(0)

	for _, index := range indices {
		if len(index.Columns) >= len(columns) {
			// 检查前几列是否匹配
			match := true
			for i, col := range columns {
				if i >= len(index.Columns) || index.Columns[i] != col {
					match = false
					break
				}
			}

			if match && index.Cardinality > maxCardinality {
				bestIndex = index
				maxCardinality = index.Cardinality
			}
		}
	}

	return bestIndex
}

// RecordIndexAccess 记录索引访问
func (im *IndexManager) RecordIndexAccess(indexName string, duration time.Duration) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if stats, ok := im.stats[indexName]; ok {
		stats.HitCount++
		stats.LastAccessed = time.Now()

		// 更新平均访问时间
		if stats.AvgAccessTime == 0 {
			stats.AvgAccessTime = duration
		} else {
			stats.AvgAccessTime = (stats.AvgAccessTime*time.Duration(stats.HitCount) + duration) / time.Duration(stats.HitCount+1)
		}
	}
}

// GetIndexStats 获取索引统计
func (im *IndexManager) GetIndexStats(indexName string) *IndexStats {
	im.mu.RLock()
	defer im.mu.RUnlock()

	if stats, ok := im.stats[indexName]; ok {
		// 返回副本
		return &IndexStats{
			Name:         stats.Name,
			HitCount:     stats.HitCount,
			MissCount:    stats.MissCount,
			AvgAccessTime: stats.AvgAccessTime,
			LastAccessed: stats.LastAccessed,
		}
	}
	return nil
}

// BatchExecutor 批量执行器
type BatchExecutor struct {
	batchSize     int
	flushInterval time.Duration
	batch         []interface{}
	timer         *time.Timer
	mu            sync.Mutex
	flushFunc      func([]interface{}) error
}

// NewBatchExecutor 创建批量执行器
func NewBatchExecutor(batchSize int, flushInterval time.Duration, flushFunc func([]interface{}) error) *BatchExecutor {
	be := &BatchExecutor{
		batchSize:     batchSize,
		flushInterval: flushInterval,
		flushFunc:     flushFunc,
	}
	be.timer = time.AfterFunc(flushInterval, be.flush)
	return be
}

// Add 添加到批次
func (be *BatchExecutor) Add(item interface{}) error {
	be.mu.Lock()
	defer be.mu.Unlock()

	be.batch = append(be.batch, item)

	if len(be.batch) >= be.batchSize {
		return be.flush()
	}

	return nil
}

// flush 刷新批次
func (be *BatchExecutor) flush() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if len(be.batch) == 0 {
		be.timer.Reset(be.flushInterval)
		return nil
	}

	items := be.batch
	be.batch = make([]interface{}, 0, be.batchSize)

	err := be.flushFunc(items)
	if err != nil {
		return err
	}

	be.timer.Reset(be.flushInterval)
	return nil
}

// Flush 手动刷新
func (be *BatchExecutor) Flush() error {
	return be.flush()
}

// Close 关闭批量执行器
func (be *BatchExecutor) Close() error {
	be.timer.Stop()
	return be.Flush()
}

// PriorityQueue 优先队列（用于JOIN重排序等优化）
type PriorityQueue []*PlanNode

// PlanPlan 计划节点
type PlanNode struct {
	Plan     LogicalPlan
	Cost     float64
	Priority int
	Index    int
}

// Len 实现 heap.Interface
func (pq PriorityQueue) Len() int { return len(pq) }

// Less 实现 heap.Interface
func (pq PriorityQueue) Less(i, j int) bool {
	// 优先级高的在前（成本低的优先）
	if pq[i].Priority == pq[j].Priority {
		return pq[i].Cost < pq[j].Cost
	}
	return pq[i].Priority > pq[j].Priority
}

// Swap 实现 heap.Interface
func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

// Push 实现 heap.Interface
func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*PlanNode)
	node.Index = n
	*pq = append(*pq, node)
}

// Pop 实现 heap.Interface
func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue() *PriorityQueue {
	pq := make(PriorityQueue, 0)
	heap.Init(&pq)
	return &pq
}

// PerformanceOptimizer 性能优化器
type PerformanceOptimizer struct {
	indexManager  *IndexManager
	batchExecutor *BatchExecutor
}

// NewPerformanceOptimizer 创建性能优化器
func NewPerformanceOptimizer() *PerformanceOptimizer {
	return &PerformanceOptimizer{
		indexManager: NewIndexManager(),
	}
}

// OptimizeQuery 优化查询
func (po *PerformanceOptimizer) OptimizeQuery(ctx context.Context, plan LogicalPlan, optCtx *OptimizationContext) (LogicalPlan, error) {
	// 1. 索引选择优化
	plan = po.optimizeIndexSelection(plan, optCtx)

	// 2. JOIN 重排序优化
	plan = po.optimizeJoinOrder(plan, optCtx)

	// 3. 谓词下推优化
	plan = po.optimizePredicatePushdown(plan, optCtx)

	return plan, nil
}

// optimizeIndexSelection 优化索引选择
func (po *PerformanceOptimizer) optimizeIndexSelection(plan LogicalPlan, optCtx *OptimizationContext) LogicalPlan {
	// TODO: 实现索引选择优化逻辑
	// 1. 扫描过滤条件中的列
	// 2. 查找匹配的索引
	// 3. 选择基数最高的索引
	return plan
}

// optimizeJoinOrder 优化JOIN顺序
func (po *PerformanceOptimizer) optimizeJoinOrder(plan LogicalPlan, optCtx *OptimizationContext) LogicalPlan {
	// TODO: 实现JOIN重排序优化逻辑
	// 1. 识别JOIN树
	// 2. 基于统计信息计算不同顺序的成本
	// 3. 选择最优顺序
	return plan
}

// optimizePredicatePushdown 优化谓词下推
func (po *PerformanceOptimizer) optimizePredicatePushdown(plan LogicalPlan, optCtx *OptimizationContext) LogicalPlan {
	// TODO: 实现谓词下推优化逻辑
	// 1. 识别过滤条件
	// 2. 尽可能将过滤条件下推到数据源
	return plan
}

// EstimateSelectivity 估计过滤条件的选择性
func (po *PerformanceOptimizer) EstimateSelectivity(filter Filter, stats *Statistics) float64 {
	// 简化实现：假设平均选择性为0.1
	// TODO: 基于统计信息实现更精确的选择性估计
	return 0.1
}

// Filter 过滤条件（简化版）
type Filter struct {
	Column   string
	Operator string
	Value    interface{}
}

// OptimizeScan 优化扫描操作
func (po *PerformanceOptimizer) OptimizeScan(tableName string, filters []Filter, optCtx *OptimizationContext) *ScanOptimization {
	optimization := &ScanOptimization{
		UseIndex:      false,
		IndexName:     "",
		PushDown:      true,
		EstimatedRows: 10000,
	}

	// 检查是否有可用的索引
	for _, filter := range filters {
		if index := po.indexManager.FindBestIndex(tableName, []string{filter.Column}); index != nil {
			optimization.UseIndex = true
			optimization.IndexName = index.Name
			optimization.EstimatedRows = index.Cardinality / 10 // 假设索引选择性为10%
			break
		}
	}

	return optimization
}

// ScanOptimization 扫描优化建议
type ScanOptimization struct {
	UseIndex      bool
	IndexName     string
	PushDown      bool
	EstimatedRows int64
}

// Explain 解释优化建议
func (so *ScanOptimization) Explain() string {
	if so.UseIndex {
		return fmt.Sprintf("建议使用索引 %s，预计扫描 %d 行", so.IndexName, so.EstimatedRows)
	}
	if so.PushDown {
		return fmt.Sprintf("建议将过滤条件下推，预计扫描 %d 行", so.EstimatedRows)
	}
	return "全表扫描"
}

// MemoryPool 内存池（用于重用对象减少GC压力）
type MemoryPool struct {
	pools map[string]interface{}
	mu    sync.RWMutex
}

// NewMemoryPool 创建内存池
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		pools: make(map[string]interface{}),
	}
}

// GetPool 获取指定类型的池
func (mp *MemoryPool) GetPool(key string) interface{} {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.pools[key]
}

// SetPool 设置指定类型的池
func (mp *MemoryPool) SetPool(key string, pool interface{}) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.pools[key] = pool
}
