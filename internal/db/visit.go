package db

import "time"

// DailyVisit 记录站点每天（UTC）的访问次数，每个日期至多一行。
type DailyVisit struct {
	ID        uint      `gorm:"primaryKey"`
	Date      time.Time `gorm:"uniqueIndex;not null"`
	Count     uint64    `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (DailyVisit) TableName() string {
	return "daily_visits"
}
