package excel

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/memory"
)

// 列类型推断时采样的最大行数
const sampleSize = 100

// ExcelAdapter Excel文件数据源适配器
// 连接时把工作表加载到内存数据源，只负责Excel格式的加载和写回
type ExcelAdapter struct {
	*memory.DataSource
	filePath  string
	sheetName string
	writable  bool
	headers   []string
}

// NewExcelAdapter 创建Excel数据源适配器
func NewExcelAdapter(config *domain.DataSourceConfig, filePath string) *ExcelAdapter {
	sheetName := ""
	writable := false // Excel默认只读

	// 从配置中读取选项
	if config.Options != nil {
		if s, ok := config.Options["sheet_name"].(string); ok {
			sheetName = s
		}
		if w, ok := config.Options["writable"].(bool); ok {
			writable = w
		}
	}

	// 确保config.Writable与writable一致
	config.Writable = writable

	return &ExcelAdapter{
		DataSource: memory.NewDataSource(config, nil),
		filePath:   filePath,
		sheetName:  sheetName,
		writable:   writable,
	}
}

// Connect 连接数据源 - 加载Excel文件到内存
func (a *ExcelAdapter) Connect(ctx context.Context) error {
	headers, rows, sheet, err := ReadWorkbook(a.filePath, a.sheetName)
	if err != nil {
		return err
	}
	a.sheetName = sheet
	a.headers = headers

	a.DataSource.Replace(rows)
	return a.DataSource.Connect(ctx)
}

// Close 关闭连接 - 可写模式下写回Excel文件
func (a *ExcelAdapter) Close(ctx context.Context) error {
	if a.writable && a.DataSource.IsConnected() {
		rows, err := a.DataSource.Rows(ctx)
		if err != nil {
			return err
		}
		if err := WriteWorkbook(a.filePath, a.sheetName, MergeHeaders(a.headers, rows), rows); err != nil {
			return fmt.Errorf("failed to write back Excel file: %w", err)
		}
	}
	return a.DataSource.Close(ctx)
}

// Insert 插入数据，只读模式下报错
func (a *ExcelAdapter) Insert(ctx context.Context, rows []domain.Row) (int64, error) {
	if !a.writable {
		return 0, domain.NewErrReadOnly(string(domain.DataSourceTypeExcel), "insert")
	}
	return a.DataSource.Insert(ctx, rows)
}

// Update 修改单元格，只读模式下报错；可写模式下在 Close 时写回文件
func (a *ExcelAdapter) Update(ctx context.Context, id interface{}, field string, value interface{}) (domain.Row, error) {
	if !a.writable {
		return nil, domain.NewErrReadOnly(string(domain.DataSourceTypeExcel), "update")
	}
	return a.DataSource.Update(ctx, id, field, value)
}

// SheetName 返回加载的工作表名
func (a *ExcelAdapter) SheetName() string {
	return a.sheetName
}

// Headers 返回列头（即字段名）
func (a *ExcelAdapter) Headers() []string {
	return append([]string(nil), a.headers...)
}

// ReadWorkbook 读取工作表：第一行是列头，其余是数据行
// sheetName 为空时使用第一个工作表
func ReadWorkbook(filePath, sheetName string) ([]string, []domain.Row, string, error) {
	file, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, "", domain.NewErrConnectionFailed(string(domain.DataSourceTypeExcel), err.Error())
	}
	defer file.Close()

	// 确定使用的工作表
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, "", fmt.Errorf("no sheets found in excel file")
	}

	if sheetName != "" {
		found := false
		for _, sheet := range sheets {
			if sheet == sheetName {
				found = true
				break
			}
		}
		if !found {
			return nil, nil, "", fmt.Errorf("sheet not found: %s", sheetName)
		}
	} else {
		sheetName = sheets[0]
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read excel rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, "", fmt.Errorf("sheet is empty: %s", sheetName)
	}

	headers := rows[0]
	dataRows := rows[1:]
	types := inferColumnTypes(headers, dataRows)

	return headers, convertToRows(headers, types, dataRows), sheetName, nil
}

// WriteWorkbook 把行写入新的工作簿，headers 决定列顺序
func WriteWorkbook(filePath, sheetName string, headers []string, rows []domain.Row) error {
	file := excelize.NewFile()
	defer file.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	// 新工作簿自带 Sheet1
	if sheetName != "Sheet1" {
		if err := file.SetSheetName("Sheet1", sheetName); err != nil {
			return err
		}
	}

	// 写入header
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	// 写入数据
	for i, row := range rows {
		rowNum := i + 2 // 跳过header行
		for j, h := range headers {
			val, exists := row[h]
			if !exists || val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheetName, cell, val); err != nil {
				return err
			}
		}
	}

	return file.SaveAs(filePath)
}

// MergeHeaders 在已有列头后追加新插入行带来的字段
func MergeHeaders(headers []string, rows []domain.Row) []string {
	out := append([]string(nil), headers...)
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		seen[h] = true
	}
	for _, row := range rows {
		var extra []string
		for k := range row {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// inferColumnTypes 推断列类型：采样前 sampleSize 行取每列最常见的类型
func inferColumnTypes(headers []string, rows [][]string) []string {
	types := make([]string, len(headers))
	for i := range types {
		types[i] = "string"
	}
	if len(rows) == 0 {
		return types
	}

	n := sampleSize
	if len(rows) < n {
		n = len(rows)
	}

	typeCounts := make([]map[string]int, len(headers))
	for i := range typeCounts {
		typeCounts[i] = make(map[string]int)
	}

	// 统计每列的类型
	for i := 0; i < n; i++ {
		for j, value := range rows[i] {
			if j >= len(headers) {
				break
			}
			if value == "" {
				continue
			}
			typeCounts[j][detectType(value)]++
		}
	}

	// 按固定顺序选择，计数相同时结果稳定
	for j := range headers {
		maxCount := 0
		for _, t := range []string{"int64", "float64", "bool", "string"} {
			if typeCounts[j][t] > maxCount {
				maxCount = typeCounts[j][t]
				types[j] = t
			}
		}
		// 整数和小数混合的列按浮点处理
		if types[j] == "int64" && typeCounts[j]["float64"] > 0 {
			types[j] = "float64"
		}
	}

	return types
}

// detectType 检测值的类型
func detectType(value string) string {
	if value == "true" || value == "false" || value == "TRUE" || value == "FALSE" {
		return "bool"
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return "int64"
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "float64"
	}
	return "string"
}

// convertToRows 转换Excel行为Row格式，短行缺的列补 nil
func convertToRows(headers []string, types []string, rows [][]string) []domain.Row {
	result := make([]domain.Row, len(rows))

	for i, row := range rows {
		rowMap := make(domain.Row, len(headers))
		for j, h := range headers {
			value := ""
			if j < len(row) {
				value = row[j]
			}
			rowMap[h] = parseValue(value, types[j])
		}
		result[i] = rowMap
	}

	return result
}

// parseValue 解析值，无法按列类型解析时保留原字符串
func parseValue(value string, colType string) interface{} {
	if value == "" {
		return nil
	}

	switch colType {
	case "int64":
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	case "float64":
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	case "bool":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}

	return value
}
