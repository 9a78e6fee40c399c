package service

import (
	"time"

	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterService 负责文章浏览数与站点按日访问数的并发安全自增。
// 所有自增都下推为数据库的单语句原子更新，绝不做先读后写，
// 因此多个进程实例并发计数也不会丢失更新。
type CounterService struct {
	db *gorm.DB
}

// NewCounterService creates a CounterService instance.
func NewCounterService(gdb *gorm.DB) *CounterService {
	return &CounterService{db: gdb}
}

// IncrementView 原子地将文章浏览数加一。
func (s *CounterService) IncrementView(postID uint) error {
	result := s.db.Model(&db.Post{}).
		Where("id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IncrementVisit 对给定日期（按 UTC 取整到当天零点）的访问计数做
// upsert：无记录时插入 count=1，已有记录时原子加一。
// 日期列上的唯一约束保证同一天并发首访也只会产生一行。
func (s *CounterService) IncrementVisit(date time.Time) error {
	day := date.UTC().Truncate(24 * time.Hour)

	visit := db.DailyVisit{Date: day, Count: 1}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&visit).Error
}

// VisitStat 表示按日聚合后的访问量。
type VisitStat struct {
	Date  time.Time
	Count uint64
}

// VisitsSince 返回从 since（UTC 当天起）至今的每日访问量，按日期升序。
func (s *CounterService) VisitsSince(since time.Time) ([]VisitStat, error) {
	day := since.UTC().Truncate(24 * time.Hour)

	var visits []db.DailyVisit
	if err := s.db.Where("date >= ?", day).Order("date asc").Find(&visits).Error; err != nil {
		return nil, err
	}

	stats := make([]VisitStat, 0, len(visits))
	for _, v := range visits {
		stats = append(stats, VisitStat{Date: v.Date, Count: v.Count})
	}
	return stats, nil
}

// Totals 汇总全站浏览量与访问量。
type Totals struct {
	TotalViews  uint64
	TotalVisits uint64
	PostCount   int64
}

// Overview 返回计数器总览，用于后台面板。
func (s *CounterService) Overview() (Totals, error) {
	var totals Totals

	var sums struct {
		Views  uint64
		Visits uint64
	}
	if err := s.db.Model(&db.Post{}).
		Select("COALESCE(SUM(view_count), 0) AS views").
		Scan(&sums).Error; err != nil {
		return totals, err
	}
	totals.TotalViews = sums.Views

	if err := s.db.Model(&db.DailyVisit{}).
		Select("COALESCE(SUM(count), 0) AS visits").
		Scan(&sums).Error; err != nil {
		return totals, err
	}
	totals.TotalVisits = sums.Visits

	if err := s.db.Model(&db.Post{}).Count(&totals.PostCount).Error; err != nil {
		return totals, err
	}

	return totals, nil
}
