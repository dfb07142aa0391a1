package resource

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ParquetSource Parquet文件数据源实现
// 注意: 实际使用时需要引入 github.com/apache/arrow/go/parquet 库
type ParquetSource struct {
	*BaseFileDataSource
	// 并行读取配置
	batchSize   int
	workers     int
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
		BaseFileDataSource: NewBaseFileDataSource(config, config.Name, false),
		batchSize:         batchSize,
		workers:            workers,
	}, nil
}

// Connect 连接数据源
func (s *ParquetSource) Connect(ctx context.Context) error {
	s.BaseDataSource.mu.Lock()
	defer s.BaseDataSource.mu.Unlock()

	// 检查文件是否存在
	if _, err := os.Stat(s.filePath); err != nil {
		return ErrFileNotFound(s.filePath, "Parquet")
	}

	// 推断列信息
	if err := s.inferSchema(ctx); err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}

	s.connected = true
	return nil
}

// GetTables 获取所有表
func (s *ParquetSource) GetTables(ctx context.Context) ([]string, error) {
	return s.BaseFileDataSource.GetTables(ctx, "parquet_data")
}

// GetTableInfo 获取表信息
func (s *ParquetSource) GetTableInfo(ctx context.Context, tableName string) (*TableInfo, error) {
	return s.BaseFileDataSource.GetTableInfo(ctx, tableName, "parquet_data")
}

// Query 查询数据
func (s *ParquetSource) Query(ctx context.Context, tableName string, options *QueryOptions) (*QueryResult, error) {
	if err := s.CheckConnected(); err != nil {
		return nil, err
	}

	if err := s.CheckTableExists(tableName, "parquet_data"); err != nil {
		return nil, err
	}

	// 列裁剪 - Parquet的核心优势
	neededColumns := GetNeededColumns(options)

	// 读取数据
	rows, err := s.readParquet(ctx, neededColumns, options)
	if err != nil {
		return nil, err
	}

	// 应用查询操作（过滤、排序、分页、列裁剪）
	pagedRows := ApplyQueryOperations(rows, options, &s.columns)

	// 构建列信息
	columns := s.GetColumns()
	if len(neededColumns) > 0 {
		columns = s.FilterColumns(neededColumns)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    pagedRows,
		Total:   int64(len(pagedRows)),
	}, nil
}

// Insert 插入数据
func (s *ParquetSource) Insert(ctx context.Context, tableName string, rows []Row, options *InsertOptions) (int64, error) {
	return s.BaseFileDataSource.Insert(ctx, tableName, rows, options, "Parquet")
}

// Update 更新数据
func (s *ParquetSource) Update(ctx context.Context, tableName string, filters []Filter, updates Row, options *UpdateOptions) (int64, error) {
	return s.BaseFileDataSource.Update(ctx, tableName, filters, updates, options, "Parquet")
}

// Delete 删除数据
func (s *ParquetSource) Delete(ctx context.Context, tableName string, filters []Filter, options *DeleteOptions) (int64, error) {
	return s.BaseFileDataSource.Delete(ctx, tableName, filters, options, "Parquet")
}

// CreateTable 创建表
func (s *ParquetSource) CreateTable(ctx context.Context, tableInfo *TableInfo) error {
	return s.BaseFileDataSource.CreateTable(ctx, tableInfo, "Parquet")
}

// DropTable 删除表
func (s *ParquetSource) DropTable(ctx context.Context, tableName string) error {
	return s.BaseFileDataSource.DropTable(ctx, tableName, "Parquet")
}

// TruncateTable 清空表
func (s *ParquetSource) TruncateTable(ctx context.Context, tableName string) error {
	return s.BaseFileDataSource.TruncateTable(ctx, tableName, "Parquet")
}

// Execute 执行自定义SQL语句
func (s *ParquetSource) Execute(ctx context.Context, sql string) (*QueryResult, error) {
	return s.BaseFileDataSource.Execute(ctx, "Parquet", sql)
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
	columns := []ColumnInfo{
		{Name: "id", Type: "INTEGER", Nullable: false, Primary: true},
		{Name: "name", Type: "VARCHAR", Nullable: true, Primary: false},
		{Name: "value", Type: "FLOAT", Nullable: true, Primary: false},
	}
	s.SetColumns(columns)

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






// 初始化
func init() {
	RegisterFactory(NewParquetFactory())
}
