package service

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 并发计数测试走文件库，共享缓存的内存库在并发写入时容易死锁
func setupCounterServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "counter.db")
	gdb, err := gorm.Open(sqlite.Open("file:"+path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := gdb.AutoMigrate(&db.User{}, &db.Post{}, &db.Tag{}, &db.DailyVisit{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb
}

func TestIncrementViewConcurrent(t *testing.T) {
	gdb := setupCounterServiceTestDB(t)

	post := db.Post{Title: "counted", Slug: "counted", Content: "c", AuthorID: 1, ViewCount: 5}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	svc := NewCounterService(gdb)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.IncrementView(post.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent increment: %v", err)
	}

	var reloaded db.Post
	if err := gdb.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.ViewCount != 5+workers {
		t.Fatalf("expected view count %d, got %d", 5+workers, reloaded.ViewCount)
	}
}

func TestIncrementViewMissingPost(t *testing.T) {
	gdb := setupCounterServiceTestDB(t)

	svc := NewCounterService(gdb)
	if err := svc.IncrementView(9999); err != ErrPostNotFound {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestIncrementVisitUpsert(t *testing.T) {
	gdb := setupCounterServiceTestDB(t)

	svc := NewCounterService(gdb)
	day := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

	if err := svc.IncrementVisit(day); err != nil {
		t.Fatalf("first visit: %v", err)
	}
	// 同一天的另一个时刻仍落到同一行
	if err := svc.IncrementVisit(day.Add(3 * time.Hour)); err != nil {
		t.Fatalf("second visit: %v", err)
	}

	var visits []db.DailyVisit
	if err := gdb.Find(&visits).Error; err != nil {
		t.Fatalf("load visits: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("expected 1 daily row, got %d", len(visits))
	}
	if visits[0].Count != 2 {
		t.Fatalf("expected count 2, got %d", visits[0].Count)
	}
}

func TestIncrementVisitConcurrentFirstOfDay(t *testing.T) {
	gdb := setupCounterServiceTestDB(t)

	svc := NewCounterService(gdb)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.IncrementVisit(day); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent visit: %v", err)
	}

	var visits []db.DailyVisit
	if err := gdb.Find(&visits).Error; err != nil {
		t.Fatalf("load visits: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("expected 1 daily row, got %d", len(visits))
	}
	if visits[0].Count != workers {
		t.Fatalf("expected count %d, got %d", workers, visits[0].Count)
	}
}

func TestVisitsSince(t *testing.T) {
	gdb := setupCounterServiceTestDB(t)

	svc := NewCounterService(gdb)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := svc.IncrementVisit(base.AddDate(0, 0, i)); err != nil {
			t.Fatalf("seed visit %d: %v", i, err)
		}
	}

	stats, err := svc.VisitsSince(base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("visits since: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected 3 days, got %d", len(stats))
	}
	for i := 1; i < len(stats); i++ {
		if !stats[i].Date.After(stats[i-1].Date) {
			t.Fatalf("expected ascending dates, got %v then %v", stats[i-1].Date, stats[i].Date)
		}
	}
}

func TestOverviewTotals(t *testing.T) {
	gdb := setupCounterServiceTestDB(t)

	posts := []db.Post{
		{Title: "a", Slug: "a", Content: "c", AuthorID: 1, ViewCount: 3},
		{Title: "b", Slug: "b", Content: "c", AuthorID: 1, ViewCount: 7},
	}
	if err := gdb.Create(&posts).Error; err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	svc := NewCounterService(gdb)
	if err := svc.IncrementVisit(time.Now()); err != nil {
		t.Fatalf("seed visit: %v", err)
	}

	totals, err := svc.Overview()
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if totals.TotalViews != 10 {
		t.Fatalf("expected 10 total views, got %d", totals.TotalViews)
	}
	if totals.TotalVisits != 1 {
		t.Fatalf("expected 1 total visit, got %d", totals.TotalVisits)
	}
	if totals.PostCount != 2 {
		t.Fatalf("expected 2 posts, got %d", totals.PostCount)
	}
}
