package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// blockOrder сортирует блоки по order, затем по времени создания и id
var blockOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "order"}},
	{Column: clause.Column{Name: "created_at"}},
	{Column: clause.Column{Name: "id"}},
}}

// OrderedBlocks is the scope every content block read goes through, so
// editors, review previews and published snapshots list blocks the same way.
func OrderedBlocks(db *gorm.DB) *gorm.DB {
	return db.Order(blockOrder)
}
