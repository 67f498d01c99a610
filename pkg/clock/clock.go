package clock

import "time"

// Clock 电台时钟接口
// 引擎内所有"今天/本周"运算都经由注入的 Clock，测试可替换为固定时刻。
type Clock interface {
	// Now 电台时区的当前时刻
	Now() time.Time
	// Today 电台时区的今天 00:00
	Today() time.Time
	// WeekStart t 所在周的周日 00:00（周日为每周第一天）
	WeekStart(t time.Time) time.Time
}

type stationClock struct {
	loc *time.Location
}

// New 创建基于系统时间的电台时钟
func New(loc *time.Location) Clock {
	return &stationClock{loc: loc}
}

func (c *stationClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *stationClock) Today() time.Time {
	return Midnight(c.Now())
}

func (c *stationClock) WeekStart(t time.Time) time.Time {
	return WeekStart(t.In(c.loc))
}

// ── 固定时钟（测试用） ──

type fixedClock struct {
	now time.Time
}

// NewFixed 创建固定时刻的时钟
func NewFixed(now time.Time) Clock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time                  { return c.now }
func (c *fixedClock) Today() time.Time                { return Midnight(c.now) }
func (c *fixedClock) WeekStart(t time.Time) time.Time { return WeekStart(t) }

// ── 日期运算辅助 ──

// Midnight t 当天的 00:00（保留时区）
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart t 所在周的周日 00:00
// time.Weekday 以周日为 0，与节目表的 day_of_week 约定一致。
func WeekStart(t time.Time) time.Time {
	return Midnight(t).AddDate(0, 0, -int(t.Weekday()))
}

// AddDays t 加 n 天（保持 00:00 语义由调用方保证）
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// SameDate 两个时刻是否为同一天
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
