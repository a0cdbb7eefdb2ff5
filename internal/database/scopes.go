package database

import (
	"gorm.io/gorm"
)

// Window applies skip/limit to a GORM query. Zero values leave the query
// unbounded in that direction.
func Window(skip, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if skip > 0 {
			db = db.Offset(skip)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	}
}
