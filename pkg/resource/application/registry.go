package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/fixture"
)

// DatasetSpec 描述如何打开一个数据集
type DatasetSpec struct {
	Name        string
	Title       string
	Description string
	// Fixture 数据源为空时装载的示例数据：cars、friends、files
	Fixture string
	// SeedRows friends 示例初始生成的行数
	SeedRows int
	// FakerSeed friends 生成器的随机种子
	FakerSeed int64
	Source    domain.DataSourceConfig
	Columns   []domain.ColumnDef
}

// 数据源可整体替换行（内存类数据源）
type rowReplacer interface {
	Replace(rows []domain.Row)
}

// 数据源可按 gorm 模型建表（SQL 数据源）
type migrator interface {
	Migrate(ctx context.Context, models ...interface{}) error
}

// ==================== 数据集注册表 ====================

// Registry 命名数据集注册表
type Registry struct {
	datasets  map[string]*Dataset
	factories *FactoryRegistry
	logger    logger.Logger
	now       func() time.Time
	mu        sync.RWMutex
}

// NewRegistry 创建数据集注册表
func NewRegistry(factories *FactoryRegistry, l logger.Logger) *Registry {
	if factories == nil {
		factories = NewDefaultFactoryRegistry(l)
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &Registry{
		datasets:  make(map[string]*Dataset),
		factories: factories,
		logger:    l,
		now:       time.Now,
	}
}

// Register 注册数据集
func (r *Registry) Register(ds *Dataset) error {
	if ds == nil || ds.Name == "" {
		return domain.NewErrInvalidConfig("name", "dataset name is required")
	}
	if ds.Source == nil {
		return domain.NewErrInvalidConfig(ds.Name, "dataset has no data source")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.datasets[ds.Name]; exists {
		return fmt.Errorf("dataset %s already registered", ds.Name)
	}
	if ds.Title == "" {
		ds.Title = ds.Name
	}
	r.datasets[ds.Name] = ds
	return nil
}

// Get 获取数据集
func (r *Registry) Get(name string) (*Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.datasets[name]
	if !ok {
		return nil, domain.NewErrDatasetNotFound(name)
	}
	return ds, nil
}

// List 按名称排序列出数据集
func (r *Registry) List() []*Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		list = append(list, ds)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Names 按名称排序列出数据集名
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, ds := range list {
		names[i] = ds.Name
	}
	return names
}

// Close 关闭所有数据源并清空注册表，返回遇到的第一个错误
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, ds := range r.datasets {
		if err := ds.Source.Close(ctx); err != nil {
			r.logger.Error("[DATASET] close %s: %v", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("close dataset %s: %w", name, err)
			}
		}
	}
	r.datasets = make(map[string]*Dataset)
	return firstErr
}

// CreateDataSource 按配置创建（未连接的）数据源
func (r *Registry) CreateDataSource(config *domain.DataSourceConfig) (domain.DataSource, error) {
	if config == nil {
		return nil, domain.NewErrInvalidConfig("source", "nil data source config")
	}
	return r.factories.Create(config)
}

// Open 创建并连接数据源，按需装载示例数据，然后注册数据集
func (r *Registry) Open(ctx context.Context, spec DatasetSpec) (*Dataset, error) {
	if spec.Name == "" {
		return nil, domain.NewErrInvalidConfig("name", "dataset name is required")
	}

	cfg := spec.Source
	if cfg.Type == "" {
		cfg.Type = domain.DataSourceTypeMemory
	}
	if cfg.Name == "" {
		cfg.Name = spec.Name
	}
	options := make(map[string]interface{}, len(cfg.Options)+1)
	for k, v := range cfg.Options {
		options[k] = v
	}
	if spec.Fixture == FixtureFriends {
		if _, ok := options["columns"]; !ok {
			options["columns"] = fixture.FriendColumnKinds()
		}
	}
	cfg.Options = options

	source, err := r.CreateDataSource(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create data source for %s: %w", spec.Name, err)
	}
	if err := source.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect data source for %s: %w", spec.Name, err)
	}

	ds := &Dataset{
		Name:        spec.Name,
		Title:       spec.Title,
		Description: spec.Description,
		Columns:     spec.Columns,
		Source:      source,
	}
	if err := r.loadFixture(ctx, ds, spec); err != nil {
		source.Close(ctx)
		return nil, err
	}
	if err := r.Register(ds); err != nil {
		source.Close(ctx)
		return nil, err
	}

	r.logger.Info("[DATASET] opened %s (%s)", ds.Name, cfg.Type)
	return ds, nil
}

// loadFixture 绑定示例数据的列定义和生成器；数据源为空时装载示例行
func (r *Registry) loadFixture(ctx context.Context, ds *Dataset, spec DatasetSpec) error {
	var rows []domain.Row
	var columns []domain.ColumnDef

	switch spec.Fixture {
	case "":
		return nil
	case FixtureCars:
		rows, columns = fixture.Cars(), fixture.CarColumns()
	case FixtureFiles:
		rows, columns = fixture.Files(), fixture.FileColumns()
	case FixtureFriends:
		columns = fixture.FriendColumns()
		ds.Generator = FriendGenerator(spec.FakerSeed, r.now)
		if m, ok := ds.Source.(migrator); ok {
			if err := m.Migrate(ctx, &fixture.Friend{}); err != nil {
				return err
			}
		}
		if spec.SeedRows > 0 {
			rows = ds.Generator(spec.SeedRows, 1)
		}
	default:
		return domain.NewErrInvalidConfig("fixture", fmt.Sprintf("unknown fixture %q", spec.Fixture))
	}

	if ds.Columns == nil {
		ds.Columns = columns
	}
	if len(rows) == 0 {
		return nil
	}

	count, err := ds.Source.Count(ctx)
	if err != nil {
		return fmt.Errorf("count %s: %w", ds.Name, err)
	}
	if count > 0 {
		return nil
	}

	if rep, ok := ds.Source.(rowReplacer); ok {
		rep.Replace(rows)
		return nil
	}
	w, ok := domain.AsWritable(ds.Source)
	if !ok {
		r.logger.Warn("[DATASET] %s is empty and read-only, fixture %s not loaded", ds.Name, spec.Fixture)
		return nil
	}
	if _, err := w.Insert(ctx, rows); err != nil {
		return fmt.Errorf("load fixture %s into %s: %w", spec.Fixture, ds.Name, err)
	}
	return nil
}

// DefaultSpecs 内置的示例数据集
func DefaultSpecs() []DatasetSpec {
	return []DatasetSpec{
		{
			Name:        FixtureCars,
			Title:       "Cars",
			Description: "Three cars with make, model and price.",
			Fixture:     FixtureCars,
		},
		{
			Name:        FixtureFriends,
			Title:       "Friends",
			Description: "Generated friends; more can be generated on demand.",
			Fixture:     FixtureFriends,
			SeedRows:    200,
			FakerSeed:   1,
			Source:      domain.DataSourceConfig{Writable: true},
		},
		{
			Name:        FixtureFiles,
			Title:       "Files",
			Description: "A file tree flattened into path strings.",
			Fixture:     FixtureFiles,
		},
	}
}
