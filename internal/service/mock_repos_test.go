package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/MirandaDiazJorge/sistema-fichaje/internal/export"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/model"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: username
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.Username]; ok {
		return gorm.ErrDuplicatedKey
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.UserID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int, role, keyword string) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		if keyword != "" && !strings.Contains(u.Username, keyword) && !strings.Contains(u.Name, keyword) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[int64]*model.Session
	users    *mockUserRepo // 供 list 联取姓名
	nextID   int64
}

func newMockSessionRepo(users *mockUserRepo) *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[int64]*model.Session),
		users:    users,
	}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	// 模拟部分唯一索引：同一员工已有未下班记录时报唯一冲突
	for _, s := range m.sessions {
		if s.EmployeeID == session.EmployeeID && s.ClockOutTime == nil {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	session.ID = m.nextID
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id int64) (*model.Session, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) GetOpenByEmployee(_ context.Context, employeeID string) (*model.Session, error) {
	var latest *model.Session
	for _, s := range m.sessions {
		if s.EmployeeID == employeeID && s.ClockOutTime == nil {
			if latest == nil || s.ID > latest.ID {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockSessionRepo) CloseOpen(ctx context.Context, employeeID, clockOutTime string) (*model.Session, error) {
	open, err := m.GetOpenByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	m.sessions[open.ID].ClockOutTime = &clockOutTime
	cp := *m.sessions[open.ID]
	return &cp, nil
}

func (m *mockSessionRepo) UpdateTimes(_ context.Context, id int64, clockInTime, clockOutTime *string) error {
	s, ok := m.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if clockInTime != nil {
		s.ClockInTime = *clockInTime
	}
	if clockOutTime != nil {
		s.ClockOutTime = clockOutTime
	}
	return nil
}

func (m *mockSessionRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.SessionWithName, error) {
	return m.list(func(s *model.Session) bool { return s.EmployeeID == employeeID })
}

func (m *mockSessionRepo) ListAll(_ context.Context) ([]model.SessionWithName, error) {
	return m.list(func(*model.Session) bool { return true })
}

func (m *mockSessionRepo) list(match func(*model.Session) bool) ([]model.SessionWithName, error) {
	var rows []model.SessionWithName
	for _, s := range m.sessions {
		if !match(s) {
			continue
		}
		name := ""
		if u, ok := m.users.users[s.EmployeeID]; ok {
			name = u.Name
		}
		rows = append(rows, model.SessionWithName{
			ID:           s.ID,
			EmployeeID:   s.EmployeeID,
			Name:         name,
			Date:         s.Date,
			ClockInTime:  s.ClockInTime,
			ClockOutTime: s.ClockOutTime,
		})
	}
	// 与真实仓储相同的排序：date DESC, name ASC, id ASC
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

// ── Fake Exporter ──

// fakeExporter 同步记录镜像操作，完成信号立即就绪
type fakeExporter struct {
	mu  sync.Mutex
	ops []export.Upsert
	err error // 非 nil 时所有操作返回该错误
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{}
}

func (f *fakeExporter) Enqueue(op export.Upsert) <-chan error {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	f.mu.Unlock()

	done := make(chan error, 1)
	done <- f.err
	return done
}

func (f *fakeExporter) Snapshot() ([]byte, error) {
	return []byte("snapshot"), nil
}

func (f *fakeExporter) recorded() []export.Upsert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]export.Upsert, len(f.ops))
	copy(out, f.ops)
	return out
}
