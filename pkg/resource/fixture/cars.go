// Package fixture provides the demo datasets served by gridsource.
package fixture

import "github.com/kasuganosora/gridsource/pkg/resource/domain"

// Cars 汽车示例数据
func Cars() []domain.Row {
	return []domain.Row{
		{"make": "Toyota", "model": "Celica", "price": 35000},
		{"make": "Ford", "model": "Mondeo", "price": 32000},
		{"make": "Porsche", "model": "Boxster", "price": 72000},
	}
}

// CarColumns 汽车示例的列定义
func CarColumns() []domain.ColumnDef {
	return []domain.ColumnDef{
		{Field: "make", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "model", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "price", Filter: domain.ColumnFilterNumber, Sortable: true},
	}
}
