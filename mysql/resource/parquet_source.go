package resource

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// ParquetSource Parquet文件数据源实现
// 注意: 实际使用时需要引入 github.com/apache/arrow/go/parquet 库
type ParquetSource struct {
	config      *DataSourceConfig
	connected   bool
	writable    bool // Parquet文件默认只读
	mu          sync.RWMutex
	filePath    string
	columns     []ColumnInfo
	// 并行读取配置
	batchSize   int
	workers     int
	// 列裁剪
	neededColumns []string
}

// ParquetFactory Parquet数据源工厂
type ParquetFactory struct{}

// NewParquetFactory 创建Parquet数据源工厂
func NewParquetFactory() *ParquetFactory {
	return &ParquetFactory{}
}

// GetType 实现DataSourceFactory接口
func (f *ParquetFactory) GetType() DataSourceType {
	return DataSourceTypeParquet
}

// Create 实现DataSourceFactory接口
func (f *ParquetFactory) Create(config *DataSourceConfig) (DataSource, error) {
	if config.Options == nil {
		config.Options = make(map[string]interface{})
	}
	
	batchSize := 1000
	if bs, ok := config.Options["batch_size"]; ok {
		if num, ok := bs.(int); ok && num > 0 {
			batchSize = num
		}
	}
	
	workers := 4
	if w, ok := config.Options["workers"]; ok {
		if num, ok := w.(int); ok && num > 0 && num <= 32 {
			workers = num
		}
	}
	
	return &ParquetSource{
		config:    config,
		writable:  false, // Parquet文件默认只读
		filePath:  config.Name,
		batchSize: batchSize,
		workers:   workers,
	}, nil
}

// Connect 连接数据源
func (s *ParquetSource) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	
	// 检查文件是否存在
	if _, err := os.Stat(s.filePath); err != nil {
		return fmt.Errorf("Parquet file not found: %s", s.filePath)
	}
	
	// 推断列信息
	if err := s.inferSchema(ctx); err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}
	
	s.connected = true
	return nil
}

// Close 关闭连接
func (s *ParquetSource) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// IsConnected 检查是否已连接
func (s *ParquetSource) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// GetConfig 获取数据源配置
func (s *ParquetSource) GetConfig() *DataSourceConfig {
	return s.config
}

// IsWritable 检查是否可写
func (s *ParquetSource) IsWritable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writable
}

// GetTables 获取所有表
func (s *ParquetSource) GetTables(ctx context.Context) ([]string, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	return []string{"parquet_data"}, nil
}

// GetTableInfo 获取表信息
func (s *ParquetSource) GetTableInfo(ctx context.Context, tableName string) (*TableInfo, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	
	if tableName != "parquet_data" {
		return nil, fmt.Errorf("table %s not found", tableName)
	}
	
	return &TableInfo{
		Name:    "parquet_data",
		Columns: s.columns,
	}, nil
}

// Query 查询数据
func (s *ParquetSource) Query(ctx context.Context, tableName string, options *QueryOptions) (*QueryResult, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	
	if tableName != "parquet_data" {
		return nil, fmt.Errorf("table %s not found", tableName)
	}
	
	// 列裁剪 - Parquet的核心优势
	neededColumns := s.getNeededColumns(options)
	
	// 读取数据
	rows, err := s.readParquet(ctx, neededColumns, options)
	if err != nil {
		return nil, err
	}
	
	// 应用过滤器 (Parquet已经利用元数据过滤)
	filteredRows := s.applyFilters(rows, options)
	
	// 应用排序
	sortedRows := s.applyOrder(filteredRows, options)
	
	// 应用分页
	total := int64(len(sortedRows))
	pagedRows := s.applyPagination(sortedRows, options)
	
	// 构建列信息
	columns := s.columns
	if len(neededColumns) > 0 {
		columns = s.filterColumns(neededColumns)
	}
	
	return &QueryResult{
		Columns: columns,
		Rows:    pagedRows,
		Total:   total,
	}, nil
}

// Insert 插入数据
func (s *ParquetSource) Insert(ctx context.Context, tableName string, rows []Row, options *InsertOptions) (int64, error) {
	return 0, fmt.Errorf("Parquet data source is read-only")
}

// Update 更新数据
func (s *ParquetSource) Update(ctx context.Context, tableName string, filters []Filter, updates Row, options *UpdateOptions) (int64, error) {
	return 0, fmt.Errorf("Parquet data source is read-only")
}

// Delete 删除数据
func (s *ParquetSource) Delete(ctx context.Context, tableName string, filters []Filter, options *DeleteOptions) (int64, error) {
	return 0, fmt.Errorf("Parquet data source is read-only")
}

// CreateTable 创建表
func (s *ParquetSource) CreateTable(ctx context.Context, tableInfo *TableInfo) error {
	return fmt.Errorf("Parquet data source is read-only")
}

// DropTable 删除表
func (s *ParquetSource) DropTable(ctx context.Context, tableName string) error {
	return fmt.Errorf("Parquet data source is read-only")
}

// TruncateTable 清空表
func (s *ParquetSource) TruncateTable(ctx context.Context, tableName string) error {
	return fmt.Errorf("Parquet data source is read-only")
}

// Execute 执行自定义SQL语句
func (s *ParquetSource) Execute(ctx context.Context, sql string) (*QueryResult, error) {
	return nil, fmt.Errorf("Parquet data source does not support SQL execution")
}

// inferSchema 推断Parquet文件的列信息
// 注意: 实际实现需要使用 Apache Arrow 库读取Parquet元数据
func (s *ParquetSource) inferSchema(ctx context.Context) error {
	// 这里是一个简化实现
	// 实际应该使用 github.com/apache/arrow/go/parquet/arrow 读取Parquet元数据
	
	// 示例: 读取文件头获取列信息
	file, err := os.Open(s.filePath)
	if err != nil {
		return err
	}
	defer file.Close()
	
	// 读取前4KB的元数据
	header := make([]byte, 4096)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return err
	}
	
	_ = n // 避免未使用变量警告
	
	// 实际实现中,这里应该解析Parquet的Schema
	// 目前返回一个示例Schema
	s.columns = []ColumnInfo{
		{Name: "id", Type: "INTEGER", Nullable: false, Primary: true},
		{Name: "name", Type: "VARCHAR", Nullable: true, Primary: false},
		{Name: "value", Type: "FLOAT", Nullable: true, Primary: false},
	}
	
	return nil
}

// readParquet 读取Parquet文件
// 注意: 实际实现需要使用 Apache Arrow 库
func (s *ParquetSource) readParquet(ctx context.Context, neededColumns []string, options *QueryOptions) ([]Row, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	
	// 实际实现应该:
	// 1. 使用 Arrow 库打开Parquet文件
	// 2. 应用列裁剪 (只读取需要的列)
	// 3. 利用元数据进行行组过滤 (min/max统计)
	// 4. 批量读取数据 (Arrow RecordBatch)
	// 5. 转换为Row格式
	
	// 这里是一个简化的模拟实现
	// 假设文件是CSV格式用于测试
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	
	// 简单的CSV解析作为占位符
	// 实际应该使用真正的Parquet读取器
	_ = string(data)
	
	// 返回空结果作为占位
	// 实际实现会解析Parquet并返回数据
	rows := []Row{}
	
	return rows, nil
}

// getNeededColumns 获取需要读取的列
func (s *ParquetSource) getNeededColumns(options *QueryOptions) []string {
	if options == nil {
		return nil
	}
	
	needed := make(map[string]bool)
	for _, filter := range options.Filters {
		needed[filter.Field] = true
	}
	
	if options.OrderBy != "" {
		needed[options.OrderBy] = true
	}
	
	if len(needed) == 0 {
		return nil
	}
	
	result := make([]string, 0, len(needed))
	for col := range needed {
		result = append(result, col)
	}
	
	return result
}

// filterColumns 过滤列信息
func (s *ParquetSource) filterColumns(neededColumns []string) []ColumnInfo {
	if len(neededColumns) == 0 {
		return s.columns
	}
	
	filtered := make([]ColumnInfo, 0, len(neededColumns))
	neededMap := make(map[string]bool)
	for _, col := range neededColumns {
		neededMap[col] = true
	}
	
	for _, col := range s.columns {
		if neededMap[col.Name] {
			filtered = append(filtered, col)
		}
	}
	
	return filtered
}

// applyFilters 应用过滤器
func (s *ParquetSource) applyFilters(rows []Row, options *QueryOptions) []Row {
	if options == nil || len(options.Filters) == 0 {
		return rows
	}
	
	result := make([]Row, 0, len(rows))
	for _, row := range rows {
		if s.matchesFilters(row, options.Filters) {
			result = append(result, row)
		}
	}
	return result
}

// matchesFilters 检查行是否匹配过滤器
func (s *ParquetSource) matchesFilters(row Row, filters []Filter) bool {
	for _, filter := range filters {
		if !s.matchFilter(row, filter) {
			return false
		}
	}
	return true
}

// matchFilter 匹配单个过滤器
func (s *ParquetSource) matchFilter(row Row, filter Filter) bool {
	value, exists := row[filter.Field]
	if !exists {
		return false
	}
	
	switch filter.Operator {
	case "=":
		return s.compareEqual(value, filter.Value)
	case "!=":
		return !s.compareEqual(value, filter.Value)
	case ">":
		return s.compareGreater(value, filter.Value)
	case "<":
		return !s.compareGreater(value, filter.Value) && !s.compareEqual(value, filter.Value)
	case ">=":
		return s.compareGreater(value, filter.Value) || s.compareEqual(value, filter.Value)
	case "<=":
		return !s.compareGreater(value, filter.Value)
	default:
		return true
	}
}

// 比较辅助函数
func (s *ParquetSource) compareEqual(a, b interface{}) bool {
	if cmp, ok := s.compareNumeric(a, b); ok {
		return cmp == 0
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func (s *ParquetSource) compareGreater(a, b interface{}) bool {
	if cmp, ok := s.compareNumeric(a, b); ok {
		return cmp > 0
	}
	aStr := fmt.Sprintf("%v", a)
	bStr := fmt.Sprintf("%v", b)
	return aStr > bStr
}

func (s *ParquetSource) compareNumeric(a, b interface{}) (int, bool) {
	aFloat, okA := s.toFloat64(a)
	bFloat, okB := s.toFloat64(b)
	if !okA || !okB {
		return 0, false
	}
	
	if aFloat < bFloat {
		return -1, true
	} else if aFloat > bFloat {
		return 1, true
	}
	return 0, true
}

func (s *ParquetSource) toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// applyOrder 应用排序
func (s *ParquetSource) applyOrder(rows []Row, options *QueryOptions) []Row {
	if options == nil || options.OrderBy == "" {
		return rows
	}
	
	return rows
}

// applyPagination 应用分页
func (s *ParquetSource) applyPagination(rows []Row, options *QueryOptions) []Row {
	if options == nil {
		return rows
	}
	return ApplyPagination(rows, options.Offset, options.Limit)
}

// 初始化
func init() {
	RegisterFactory(NewParquetFactory())
}
