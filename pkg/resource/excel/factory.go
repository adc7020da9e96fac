package excel

import (
	"path/filepath"
	"strings"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// ExcelFactory 工作表数据源工厂
// 文件路径取 options.path，其次取 database；只接受 .xlsx/.xlsm
type ExcelFactory struct{}

// NewExcelFactory 创建工作表数据源工厂
func NewExcelFactory() *ExcelFactory {
	return &ExcelFactory{}
}

func (f *ExcelFactory) GetType() domain.DataSourceType {
	return domain.DataSourceTypeExcel
}

// Create 复制配置后创建适配器，调用方的配置不会被修改
func (f *ExcelFactory) Create(config *domain.DataSourceConfig) (domain.DataSource, error) {
	if config == nil {
		return nil, domain.NewErrInvalidConfig("path", "worksheet data source needs a config")
	}

	cfg := *config
	cfg.Type = domain.DataSourceTypeExcel
	if config.Options != nil {
		cfg.Options = make(map[string]interface{}, len(config.Options))
		for k, v := range config.Options {
			cfg.Options[k] = v
		}
	}

	path := workbookPath(&cfg)
	if path == "" {
		return nil, domain.NewErrInvalidConfig("path", "file path required (set database or options.path)")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
	default:
		return nil, domain.NewErrInvalidConfig("path", "unsupported workbook extension "+filepath.Ext(path))
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return NewExcelAdapter(&cfg, path), nil
}

func workbookPath(cfg *domain.DataSourceConfig) string {
	if p, ok := cfg.Options["path"].(string); ok && p != "" {
		return p
	}
	return cfg.Database
}
