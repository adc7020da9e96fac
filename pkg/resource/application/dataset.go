package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/fixture"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
)

// 内置示例数据
const (
	FixtureCars    = "cars"
	FixtureFriends = "friends"
	FixtureFiles   = "files"
)

// Generator 生成 n 行新数据，ID 从 firstID 开始
type Generator func(n int, firstID int64) []domain.Row

// Dataset 命名数据集：数据源加上展示用的元数据
type Dataset struct {
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Columns     []domain.ColumnDef `json:"columns"`
	Source      domain.DataSource  `json:"-"`
	Generator   Generator          `json:"-"`

	// genMu 串行化同一数据集的生成，读最大 ID 和插入之间不能交错
	genMu sync.Mutex
}

// Info 数据集的可序列化描述
type Info struct {
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Type        string             `json:"type"`
	Writable    bool               `json:"writable"`
	Generates   bool               `json:"generates"`
	Columns     []domain.ColumnDef `json:"columns"`
}

// Info 返回数据集描述
func (d *Dataset) Info() Info {
	info := Info{
		Name:        d.Name,
		Title:       d.Title,
		Description: d.Description,
		Columns:     d.Columns,
		Generates:   d.Generator != nil,
	}
	if d.Source != nil {
		info.Type = string(d.Source.GetConfig().Type)
		info.Writable = d.Source.IsWritable()
	}
	if info.Columns == nil {
		info.Columns = []domain.ColumnDef{}
	}
	return info
}

// Generate 追加 n 行生成数据，返回写入的行数
// 新行 ID 从当前最大 ID 加一开始；只在本进程内串行，多个进程同时写同一张表仍可能冲突
func (d *Dataset) Generate(ctx context.Context, n int) (int64, error) {
	if d.Generator == nil {
		return 0, fmt.Errorf("dataset %s has no generator", d.Name)
	}
	w, ok := domain.AsWritable(d.Source)
	if !ok {
		return 0, domain.NewErrReadOnly(string(d.Source.GetConfig().Type), "generate")
	}
	if n <= 0 {
		return 0, nil
	}

	d.genMu.Lock()
	defer d.genMu.Unlock()

	maxID, err := d.maxID(ctx)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", d.Name, err)
	}
	return w.Insert(ctx, d.Generator(n, maxID+1))
}

func (d *Dataset) maxID(ctx context.Context) (int64, error) {
	if m, ok := d.Source.(domain.MaxIDSource); ok {
		return m.MaxID(ctx)
	}
	rows, err := d.Source.Rows(ctx)
	if err != nil {
		return 0, err
	}
	return util.MaxID(rows), nil
}

// Update 修改一行的一个字段，数据源不可写时返回 ErrReadOnly
func (d *Dataset) Update(ctx context.Context, id interface{}, field string, value interface{}) (domain.Row, error) {
	w, ok := domain.AsWritable(d.Source)
	if !ok {
		return nil, domain.NewErrReadOnly(string(d.Source.GetConfig().Type), "update")
	}
	return w.Update(ctx, id, field, value)
}

// FriendGenerator 返回基于 gofakeit 的朋友生成器
func FriendGenerator(seed int64, now func() time.Time) Generator {
	return func(n int, firstID int64) []domain.Row {
		g := fixture.NewFriendGenerator(seed+firstID, now())
		g.SetNextID(firstID)
		return fixture.FriendRows(g.Generate(n))
	}
}
