package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"info":  gormlogger.Warn,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
		"":      gormlogger.Warn,
	}
	for in, want := range cases {
		if got := gormLogLevel(in); got != want {
			t.Errorf("gormLogLevel(%q) 期望 %v，实际 %v", in, want, got)
		}
	}
}

func TestZapGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newGormLogger(zap.New(core), gormlogger.Warn, 100*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, nil)
	if logs.Len() != 0 {
		t.Fatalf("Warn 级别下快查询不应输出，实际 %d 条", logs.Len())
	}

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	if got := logs.FilterMessage("慢查询").Len(); got != 1 {
		t.Errorf("期望 1 条慢查询日志，实际 %d", got)
	}

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	if got := logs.FilterMessage("SQL 执行失败").Len(); got != 1 {
		t.Errorf("记录不存在不应记为失败，期望 1 条失败日志，实际 %d", got)
	}

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now().Add(-time.Second), sql, errors.New("boom"))
	if got := logs.Len(); got != 2 {
		t.Errorf("Silent 模式不应输出，实际共 %d 条", got)
	}
}
