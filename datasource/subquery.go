package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SubqueryExecutor 子查询执行器
type SubqueryExecutor struct {
	executor      *Executor
	query         *Query
	cache         *SubqueryCache
	timeout       time.Duration
	maxGoroutines int
}

// SubqueryCache 子查询缓存
type SubqueryCache struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
}

// CacheItem 缓存项
type CacheItem struct {
	Results [][]interface{}
	Time    time.Time
}

// NewSubqueryExecutor 创建子查询执行器
func NewSubqueryExecutor(executor *Executor) *SubqueryExecutor {
	return &SubqueryExecutor{
		executor:      executor,
		query:         nil,
		cache:         &SubqueryCache{items: make(map[string]*CacheItem)},
		timeout:       30 * time.Second,
		maxGoroutines: 10,
	}
}

// SetQuery 设置查询
func (se *SubqueryExecutor) SetQuery(query *Query) {
	se.query = query
}

// GetQuery 获取查询
func (se *SubqueryExecutor) GetQuery() *Query {
	return se.query
}

// ExecuteSubquery 执行子查询
func (se *SubqueryExecutor) ExecuteSubquery(ctx context.Context, query *Query, params map[string]interface{}) ([][]interface{}, error) {
	// 检查缓存
	if results, ok := se.checkCache(query, params); ok {
		return results, nil
	}

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(ctx, se.timeout)
	defer cancel()

	// 处理相关子查询
	if err := se.processCorrelatedSubquery(query, params); err != nil {
		return nil, err
	}

	// 执行子查询
	rows, err := se.executor.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	// 转换结果类型
	results := make([][]interface{}, len(rows))
	for i, row := range rows {
		values := make([]interface{}, 0, len(row))
		for _, val := range row {
			values = append(values, val)
		}
		results[i] = values
	}

	// 缓存结果
	se.cacheResults(query, params, results)

	return results, nil
}

// processCorrelatedSubquery 处理相关子查询
func (se *SubqueryExecutor) processCorrelatedSubquery(query *Query, params map[string]interface{}) error {
	// 处理WHERE条件中的相关子查询
	for i := range query.Where {
		if query.Where[i].Subquery != nil {
			if err := se.processCorrelatedSubquery(query.Where[i].Subquery, params); err != nil {
				return err
			}
		}
	}

	// 处理JOIN中的相关子查询
	for i := range query.Joins {
		if query.Joins[i].Subquery != nil {
			if err := se.processCorrelatedSubquery(query.Joins[i].Subquery, params); err != nil {
				return err
			}
		}
	}

	// 处理HAVING中的相关子查询
	for i := range query.Having {
		if query.Having[i].Subquery != nil {
			if err := se.processCorrelatedSubquery(query.Having[i].Subquery, params); err != nil {
				return err
			}
		}
	}

	// 替换相关子查询中的参数
	se.replaceCorrelatedParams(query, params)

	return nil
}

// replaceCorrelatedParams 替换相关子查询中的参数
func (se *SubqueryExecutor) replaceCorrelatedParams(query *Query, params map[string]interface{}) {
	// 替换WHERE条件中的参数
	for i := range query.Where {
		if query.Where[i].Value != nil {
			if param, ok := query.Where[i].Value.(string); ok {
				if value, exists := params[param]; exists {
					query.Where[i].Value = value
				}
			}
		}
	}

	// 替换JOIN条件中的参数
	for i := range query.Joins {
		param := query.Joins[i].Condition
		if value, exists := params[param]; exists {
			query.Joins[i].Condition = fmt.Sprintf("%v", value)
		}
	}

	// 替换HAVING条件中的参数
	for i := range query.Having {
		if query.Having[i].Value != nil {
			if param, ok := query.Having[i].Value.(string); ok {
				if value, exists := params[param]; exists {
					query.Having[i].Value = value
				}
			}
		}
	}
}

// checkCache 检查缓存
func (se *SubqueryExecutor) checkCache(query *Query, params map[string]interface{}) ([][]interface{}, bool) {
	se.cache.mu.RLock()
	defer se.cache.mu.RUnlock()

	// 生成缓存键
	key := se.generateCacheKey(query, params)

	// 检查缓存项
	if item, ok := se.cache.items[key]; ok {
		// 检查缓存是否过期（5分钟）
		if time.Since(item.Time) < 5*time.Minute {
			return item.Results, true
		}
		// 删除过期缓存
		delete(se.cache.items, key)
	}

	return nil, false
}

// cacheResults 缓存结果
func (se *SubqueryExecutor) cacheResults(query *Query, params map[string]interface{}, results [][]interface{}) {
	se.cache.mu.Lock()
	defer se.cache.mu.Unlock()

	// 生成缓存键
	key := se.generateCacheKey(query, params)

	// 存储结果
	se.cache.items[key] = &CacheItem{
		Results: results,
		Time:    time.Now(),
	}
}

// generateCacheKey 生成缓存键
func (se *SubqueryExecutor) generateCacheKey(query *Query, params map[string]interface{}) string {
	// 这里应该实现一个更复杂的缓存键生成逻辑
	// 简单示例：使用查询的字符串表示和参数的字符串表示
	return fmt.Sprintf("%v-%v", query, params)
}

// ExecuteParallel 并行执行多个子查询
func (se *SubqueryExecutor) ExecuteParallel(ctx context.Context, queries []*Query, params []map[string]interface{}) ([][][]interface{}, error) {
	if len(queries) != len(params) {
		return nil, fmt.Errorf("查询和参数数量不匹配")
	}

	// 创建结果通道
	type result struct {
		index  int
		values [][]interface{}
		err    error
	}
	resultChan := make(chan result, len(queries))

	// 创建信号量控制并发
	sem := make(chan struct{}, se.maxGoroutines)

	// 启动goroutine执行查询
	for i, query := range queries {
		sem <- struct{}{} // 获取信号量
		go func(idx int, q *Query, p map[string]interface{}) {
			defer func() { <-sem }() // 释放信号量
			results, err := se.ExecuteSubquery(ctx, q, p)
			resultChan <- result{idx, results, err}
		}(i, query, params[i])
	}

	// 收集结果
	results := make([][][]interface{}, len(queries))
	for i := 0; i < len(queries); i++ {
		r := <-resultChan
		if r.err != nil {
			return nil, r.err
		}
		results[r.index] = r.values
	}

	return results, nil
}

// SetTimeout 设置超时时间
func (se *SubqueryExecutor) SetTimeout(timeout time.Duration) {
	se.timeout = timeout
}

// SetMaxGoroutines 设置最大并发数
func (se *SubqueryExecutor) SetMaxGoroutines(max int) {
	se.maxGoroutines = max
}

// ClearCache 清除缓存
func (se *SubqueryExecutor) ClearCache() {
	se.cache.mu.Lock()
	defer se.cache.mu.Unlock()
	se.cache.items = make(map[string]*CacheItem)
}

// Execute 执行子查询
func (se *SubqueryExecutor) Execute(ctx context.Context) ([][]interface{}, error) {
	if se.query == nil {
		return nil, fmt.Errorf("未设置查询")
	}
	rows, err := se.executor.ExecuteQuery(ctx, se.query)
	if err != nil {
		return nil, err
	}

	// 转换结果类型
	results := make([][]interface{}, len(rows))
	for i, row := range rows {
		values := make([]interface{}, 0, len(row))
		for _, val := range row {
			values = append(values, val)
		}
		results[i] = values
	}

	return results, nil
}
