package fixture

import (
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// MetLayout met 字段的文本格式，与 SQL 数据源读出的时间格式一致
const MetLayout = "2006-01-02 15:04:05"

// Friend 朋友示例模型，同时作为 SQL 数据源的迁移模型
type Friend struct {
	ID               int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Name             string    `json:"name" gorm:"column:name"`
	Age              int       `json:"age" gorm:"column:age"`
	YearsKnown       int       `json:"years_known" gorm:"column:years_known"`
	OwesMe           bool      `json:"owes_me" gorm:"column:owes_me"`
	HasADog          bool      `json:"has_a_dog" gorm:"column:has_a_dog"`
	SpouseIsAnnoying bool      `json:"spouse_is_annoying" gorm:"column:spouse_is_annoying"`
	Met              time.Time `json:"met" gorm:"column:met"`
}

// Row 转换为行，met 格式化为 MetLayout
func (f Friend) Row() domain.Row {
	return domain.Row{
		"id":                 f.ID,
		"name":               f.Name,
		"age":                int64(f.Age),
		"years_known":        int64(f.YearsKnown),
		"owes_me":            f.OwesMe,
		"has_a_dog":          f.HasADog,
		"spouse_is_annoying": f.SpouseIsAnnoying,
		"met":                f.Met.UTC().Format(MetLayout),
	}
}

// FriendRows 批量转换
func FriendRows(friends []Friend) []domain.Row {
	rows := make([]domain.Row, len(friends))
	for i, f := range friends {
		rows[i] = f.Row()
	}
	return rows
}

// FriendColumns 朋友示例的列定义
// spouse_is_annoying 不可过滤也不可排序
func FriendColumns() []domain.ColumnDef {
	return []domain.ColumnDef{
		{Field: "id", Filter: domain.ColumnFilterNumber, Sortable: true},
		{Field: "name", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "age", Filter: domain.ColumnFilterNumber, Sortable: true},
		{Field: "years_known", Filter: domain.ColumnFilterNumber, Sortable: true},
		{Field: "owes_me", Sortable: true},
		{Field: "has_a_dog", Sortable: true},
		{Field: "spouse_is_annoying"},
		{Field: "met", Filter: domain.ColumnFilterText, Sortable: true},
	}
}

// FriendColumnKinds SQL 数据源的列类别覆盖（bool 列在 SQLite 中是 numeric）
func FriendColumnKinds() map[string]interface{} {
	return map[string]interface{}{
		"owes_me":            "bool",
		"has_a_dog":          "bool",
		"spouse_is_annoying": "bool",
	}
}

// FriendGenerator 生成假朋友，相同种子和时间得到相同结果
// gofakeit.Faker 不是并发安全的，这里加锁
type FriendGenerator struct {
	mu     sync.Mutex
	faker  *gofakeit.Faker
	now    time.Time
	nextID int64
}

// NewFriendGenerator 创建生成器，ID 从 1 开始
func NewFriendGenerator(seed int64, now time.Time) *FriendGenerator {
	return &FriendGenerator{
		faker:  gofakeit.New(seed),
		now:    now.UTC().Truncate(time.Second),
		nextID: 1,
	}
}

// SetNextID 设置下一个 ID（追加到已有数据时使用）
func (g *FriendGenerator) SetNextID(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID = id
}

// Generate 生成 n 个朋友
//   - age 在 [18, 80]
//   - years_known 在 [0, age]
//   - owes_me 20%、has_a_dog 60%、spouse_is_annoying 30% 为真
//   - met 在 years_known+1 年前到 years_known 年前之间
func (g *FriendGenerator) Generate(n int) []Friend {
	g.mu.Lock()
	defer g.mu.Unlock()

	friends := make([]Friend, 0, n)
	for i := 0; i < n; i++ {
		age := g.faker.Number(18, 80)
		yearsKnown := g.faker.Number(0, age)
		start := g.now.AddDate(-(yearsKnown + 1), 0, 0)
		end := g.now.AddDate(-yearsKnown, 0, 0)

		friends = append(friends, Friend{
			ID:               g.nextID,
			Name:             g.faker.Name(),
			Age:              age,
			YearsKnown:       yearsKnown,
			OwesMe:           g.chance(20),
			HasADog:          g.chance(60),
			SpouseIsAnnoying: g.chance(30),
			Met:              g.faker.DateRange(start, end).UTC().Truncate(time.Second),
		})
		g.nextID++
	}
	return friends
}

// chance 以 percent% 的概率返回 true
func (g *FriendGenerator) chance(percent int) bool {
	return g.faker.Number(1, 100) <= percent
}

// GenerateFriends 用给定种子生成 n 个朋友
func GenerateFriends(n int, seed int64) []Friend {
	return NewFriendGenerator(seed, time.Now()).Generate(n)
}
