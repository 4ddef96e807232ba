package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MirandaDiazJorge/sistema-fichaje/internal/model"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/repository"
)

// ── 测试辅助 ──

func setupTestHistoryService() (HistoryService, *mockSessionRepo) {
	userRepo := newMockUserRepo()
	userRepo.users["jperez"] = &model.User{
		UserID: "user-jperez", Username: "jperez", Name: "Juan Pérez", Role: model.RoleEmployee,
	}
	userRepo.users["agarcia"] = &model.User{
		UserID: "user-agarcia", Username: "agarcia", Name: "Ana García", Role: model.RoleEmployee,
	}
	sessionRepo := newMockSessionRepo(userRepo)
	repo := &repository.Repository{User: userRepo, Session: sessionRepo}
	return NewHistoryService(repo, zap.NewNop()), sessionRepo
}

func seedSession(m *mockSessionRepo, employeeID, date, in string, out *string) {
	m.nextID++
	m.sessions[m.nextID] = &model.Session{
		ID:           m.nextID,
		EmployeeID:   employeeID,
		Date:         date,
		ClockInTime:  in,
		ClockOutTime: out,
	}
}

func ptr(s string) *string { return &s }

// ── 历史聚合测试 ──

func TestGetHistory_GroupsByDay(t *testing.T) {
	svc, sessionRepo := setupTestHistoryService()

	// 同一天两段：09:00–12:00 + 13:00–17:00 = 7 小时
	seedSession(sessionRepo, "jperez", "2026-03-02", "09:00:00", ptr("12:00:00"))
	seedSession(sessionRepo, "jperez", "2026-03-02", "13:00:00", ptr("17:00:00"))

	groups, err := svc.GetHistory(context.Background(), "jperez")
	if err != nil {
		t.Fatalf("GetHistory 应成功: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("期望 1 个分组，实际=%d", len(groups))
	}

	g := groups[0]
	if g.EmployeeID != "jperez" || g.Name != "Juan Pérez" || g.Date != "2026-03-02" {
		t.Errorf("分组头错误: %+v", g)
	}
	if len(g.Sessions) != 2 {
		t.Fatalf("期望 2 个子区间，实际=%d", len(g.Sessions))
	}
	if g.Sessions[0].Decimal != "3.00" || g.Sessions[1].Decimal != "4.00" {
		t.Errorf("子区间时长错误: %+v", g.Sessions)
	}
	if g.TotalDecimal != "7.00" {
		t.Errorf("期望 TotalDecimal=7.00，实际=%s", g.TotalDecimal)
	}
	if g.TotalHuman != "07:00" {
		t.Errorf("期望 TotalHuman=07:00，实际=%s", g.TotalHuman)
	}
}

func TestGetHistory_OpenSessionCountsZero(t *testing.T) {
	svc, sessionRepo := setupTestHistoryService()

	seedSession(sessionRepo, "jperez", "2026-03-02", "09:00:00", ptr("13:30:00"))
	seedSession(sessionRepo, "jperez", "2026-03-02", "14:00:00", nil) // 未下班

	groups, err := svc.GetHistory(context.Background(), "jperez")
	if err != nil {
		t.Fatalf("GetHistory 应成功: %v", err)
	}
	g := groups[0]
	if len(g.Sessions) != 2 {
		t.Fatalf("未闭合区间也应列出，实际=%d", len(g.Sessions))
	}
	if g.Sessions[1].Decimal != "0.00" {
		t.Errorf("未闭合区间期望 0.00，实际=%s", g.Sessions[1].Decimal)
	}
	if g.TotalDecimal != "4.50" {
		t.Errorf("合计只含闭合区间：期望 4.50，实际=%s", g.TotalDecimal)
	}
}

func TestGetHistory_DaysNewestFirst(t *testing.T) {
	svc, sessionRepo := setupTestHistoryService()

	seedSession(sessionRepo, "jperez", "2026-03-01", "09:00:00", ptr("17:00:00"))
	seedSession(sessionRepo, "jperez", "2026-03-03", "09:00:00", ptr("17:00:00"))
	seedSession(sessionRepo, "jperez", "2026-03-02", "09:00:00", ptr("17:00:00"))

	groups, err := svc.GetHistory(context.Background(), "jperez")
	if err != nil {
		t.Fatalf("GetHistory 应成功: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("期望 3 个分组，实际=%d", len(groups))
	}
	if groups[0].Date != "2026-03-03" || groups[1].Date != "2026-03-02" || groups[2].Date != "2026-03-01" {
		t.Errorf("分组应按日期降序: %s, %s, %s", groups[0].Date, groups[1].Date, groups[2].Date)
	}
}

func TestGetAllHistory_SplitsByEmployee(t *testing.T) {
	svc, sessionRepo := setupTestHistoryService()

	seedSession(sessionRepo, "jperez", "2026-03-02", "09:00:00", ptr("17:00:00"))
	seedSession(sessionRepo, "agarcia", "2026-03-02", "10:00:00", ptr("18:00:00"))

	groups, err := svc.GetAllHistory(context.Background())
	if err != nil {
		t.Fatalf("GetAllHistory 应成功: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("同日不同员工应各自一组，实际=%d", len(groups))
	}
	// 同一日期内按姓名升序
	if groups[0].Name != "Ana García" || groups[1].Name != "Juan Pérez" {
		t.Errorf("期望姓名升序: %s, %s", groups[0].Name, groups[1].Name)
	}
}

// ── ICS 导出测试 ──

func TestHistoryICS_ClosedSessionsOnly(t *testing.T) {
	svc, sessionRepo := setupTestHistoryService()

	seedSession(sessionRepo, "jperez", "2026-03-02", "09:00:00", ptr("17:00:00"))
	seedSession(sessionRepo, "jperez", "2026-03-03", "09:00:00", nil) // 未下班，不生成事件

	out, err := svc.HistoryICS(context.Background(), "jperez")
	if err != nil {
		t.Fatalf("HistoryICS 应成功: %v", err)
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Error("输出应是 iCalendar 文档")
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("期望 1 个事件，实际=%d", n)
	}
	if !strings.Contains(out, "UID:session-1@sistema-fichaje") {
		t.Error("事件 UID 应含记录 ID")
	}
	if !strings.Contains(out, "Jornada Juan Pérez") {
		t.Error("事件摘要应含员工姓名")
	}
}
