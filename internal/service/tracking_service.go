package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MirandaDiazJorge/sistema-fichaje/internal/dto"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/export"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/model"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/repository"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/timecalc"
)

var (
	ErrSessionAlreadyOpen = errors.New("已有未下班的打卡记录")
	ErrNoOpenSession      = errors.New("当前没有未下班的打卡记录")
	ErrSessionNotFound    = errors.New("打卡记录不存在")
	ErrEmptyCorrection    = errors.New("修正请求未提供任何字段")
)

// TrackingService 打卡业务接口
type TrackingService interface {
	ClockIn(ctx context.Context, employeeID, displayName, clockInTime, deviceTag string) (*dto.SessionResponse, error)
	ClockOut(ctx context.Context, employeeID, clockOutTime string) (*dto.SessionResponse, error)
	GetStatus(ctx context.Context, employeeID string) (*dto.StatusResponse, error)
	CorrectSession(ctx context.Context, sessionID int64, req *dto.CorrectSessionRequest) (*dto.SessionResponse, error)
}

type trackingService struct {
	repo     *repository.Repository
	exporter Exporter
	logger   *zap.Logger
	now      func() time.Time // 测试注入
}

// NewTrackingService 创建 TrackingService 实例
func NewTrackingService(repo *repository.Repository, exporter Exporter, logger *zap.Logger) TrackingService {
	return &trackingService{
		repo:     repo,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// ClockIn 上班打卡
//
// "每人至多一条未下班记录"的最终裁决在数据库部分唯一索引：
// 这里的 GetOpenByEmployee 预检只为给出友好错误，并发竞争时
// 落败方会在 Create 收到 gorm.ErrDuplicatedKey，同样翻译为冲突。
func (s *trackingService) ClockIn(ctx context.Context, employeeID, displayName, clockInTime, deviceTag string) (*dto.SessionResponse, error) {
	now := s.now()
	if clockInTime == "" {
		clockInTime = now.Format("15:04:05")
	}
	clockInTime, err := timecalc.ParseClock(clockInTime)
	if err != nil {
		return nil, err
	}

	// 预检：已有未下班记录直接拒绝
	if _, err := s.repo.Session.GetOpenByEmployee(ctx, employeeID); err == nil {
		return nil, ErrSessionAlreadyOpen
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session := &model.Session{
		EmployeeID:  employeeID,
		Date:        now.Format("2006-01-02"),
		ClockInTime: clockInTime,
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSessionAlreadyOpen
		}
		s.logger.Error("创建打卡记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	s.mirror(export.Upsert{
		SessionID:   session.ID,
		EmployeeID:  employeeID,
		DisplayName: displayName,
		Date:        session.Date,
		ClockInTime: session.ClockInTime,
		DeviceTag:   deviceTag,
	})

	return sessionResponse(session, nil), nil
}

// ClockOut 下班打卡：单条条件 UPDATE 关闭未下班记录并重算时长
func (s *trackingService) ClockOut(ctx context.Context, employeeID, clockOutTime string) (*dto.SessionResponse, error) {
	if clockOutTime == "" {
		clockOutTime = s.now().Format("15:04:05")
	}
	clockOutTime, err := timecalc.ParseClock(clockOutTime)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Session.CloseOpen(ctx, employeeID, clockOutTime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenSession
		}
		s.logger.Error("关闭打卡记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	session.ClockOutTime = &clockOutTime

	d, err := timecalc.Elapsed(session.Date, session.ClockInTime, clockOutTime)
	if err != nil {
		return nil, err
	}

	s.mirror(export.Upsert{
		SessionID:       session.ID,
		ClockOutTime:    clockOutTime,
		DurationHuman:   d.Human,
		DurationDecimal: d.Decimal,
	})

	return sessionResponse(session, &d), nil
}

// GetStatus 查询员工今日打卡状态
// 跨日遗留的未下班记录不算今日在岗。
func (s *trackingService) GetStatus(ctx context.Context, employeeID string) (*dto.StatusResponse, error) {
	session, err := s.repo.Session.GetOpenByEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.StatusResponse{Active: false}, nil
		}
		return nil, err
	}
	if session.Date != s.now().Format("2006-01-02") {
		return &dto.StatusResponse{Active: false}, nil
	}
	return &dto.StatusResponse{
		Active:  true,
		Session: sessionResponse(session, nil),
	}, nil
}

// CorrectSession 管理员修正打卡记录，随后按新时刻重算时长并重镜像
func (s *trackingService) CorrectSession(ctx context.Context, sessionID int64, req *dto.CorrectSessionRequest) (*dto.SessionResponse, error) {
	if req.ClockInTime == nil && req.ClockOutTime == nil {
		return nil, ErrEmptyCorrection
	}

	var clockIn, clockOut *string
	if req.ClockInTime != nil {
		v, err := timecalc.ParseClock(*req.ClockInTime)
		if err != nil {
			return nil, err
		}
		clockIn = &v
	}
	if req.ClockOutTime != nil {
		v, err := timecalc.ParseClock(*req.ClockOutTime)
		if err != nil {
			return nil, err
		}
		clockOut = &v
	}

	if err := s.repo.Session.UpdateTimes(ctx, sessionID, clockIn, clockOut); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("修正打卡记录失败", zap.Int64("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	op := export.Upsert{
		SessionID:   session.ID,
		EmployeeID:  session.EmployeeID,
		Date:        session.Date,
		ClockInTime: session.ClockInTime,
	}
	if user, err := s.repo.User.GetByUsername(ctx, session.EmployeeID); err == nil {
		op.DisplayName = user.Name
	}

	var d *timecalc.Duration
	if session.ClockOutTime != nil {
		elapsed, err := timecalc.Elapsed(session.Date, session.ClockInTime, *session.ClockOutTime)
		if err != nil {
			return nil, err
		}
		d = &elapsed
		op.ClockOutTime = *session.ClockOutTime
		op.DurationHuman = elapsed.Human
		op.DurationDecimal = elapsed.Decimal
	}
	s.mirror(op)

	return sessionResponse(session, d), nil
}

// mirror 异步镜像到 Excel 导出文件。
// 镜像失败不回滚数据库，只记日志；文件会在后续成功操作中收敛。
func (s *trackingService) mirror(op export.Upsert) {
	done := s.exporter.Enqueue(op)
	go func() {
		if err := <-done; err != nil {
			s.logger.Warn("打卡记录镜像失败",
				zap.Int64("session_id", op.SessionID),
				zap.Error(err))
		}
	}()
}

func sessionResponse(session *model.Session, d *timecalc.Duration) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:           session.ID,
		EmployeeID:   session.EmployeeID,
		Date:         session.Date,
		ClockInTime:  session.ClockInTime,
		ClockOutTime: session.ClockOutTime,
	}
	if d != nil {
		resp.DurationHuman = d.Human
		resp.DurationDecimal = d.Decimal
	}
	return resp
}
