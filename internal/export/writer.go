package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MirandaDiazJorge/sistema-fichaje/config"
)

// 打卡记录 Excel 镜像写入器。
//
// 数据库是权威存储，Excel 文件只是最终一致的镜像：每次变更都整文件
// 读-改-写。文件本身没有任何行级并发能力，所以所有操作进入一条 FIFO
// 队列，由单个 worker 逐个执行，前一个写完之前绝不开始下一个的读。
// 某次镜像写入失败只使该操作的 future 出错并继续处理队列，
// 已提交的数据库变更不回滚，两边允许暂时分叉。

var (
	// ErrExportClosed 写入器已关闭
	ErrExportClosed = errors.New("导出写入器已关闭")
	// ErrExportFile 导出文件读写失败
	ErrExportFile = errors.New("导出文件读写失败")
)

// 导出文件固定列（顺序即列顺序 A…J）
var columns = []string{
	"session_id",
	"employee_id",
	"display_name",
	"date",
	"clock_in_time",
	"clock_out_time",
	"duration_human",
	"duration_decimal",
	"write_timestamp",
	"device_tag",
}

// Upsert 一次镜像写入的载荷
// SessionID 之外的字段为空字符串时表示"本次不更新该列"；
// 目标行不存在时按完整载荷追加新行。
type Upsert struct {
	SessionID       int64
	EmployeeID      string
	DisplayName     string
	Date            string
	ClockInTime     string
	ClockOutTime    string
	DurationHuman   string
	DurationDecimal string
	DeviceTag       string
}

// Writer 串行化的 Excel 镜像写入器
type Writer struct {
	path   string
	sheet  string
	logger *zap.Logger

	ops     chan operation
	stopped chan struct{}

	mu     sync.Mutex
	closed bool

	opHook func(phase string) // 仅测试使用："begin" / "end"
}

type operation struct {
	run  func() error
	done chan error
}

// NewWriter 创建写入器：文件不存在时先以固定表头初始化，再启动 worker
func NewWriter(cfg *config.ExportConfig, logger *zap.Logger) (*Writer, error) {
	w := &Writer{
		path:    cfg.Path,
		sheet:   cfg.SheetName,
		logger:  logger,
		ops:     make(chan operation, queueSize(cfg.QueueSize)),
		stopped: make(chan struct{}),
	}
	if w.sheet == "" {
		w.sheet = "Fichajes"
	}

	if err := w.ensureFile(); err != nil {
		return nil, err
	}

	go w.loop()
	return w, nil
}

func queueSize(n int) int {
	if n <= 0 {
		return 1024
	}
	return n
}

// Enqueue 提交一次镜像写入，返回该操作的完成信号
// 返回的 channel 恰好收到一个值：nil 表示镜像成功，否则为 ErrExportFile 包装错误。
//
// 发送必须在 w.mu 内进行：Close 持同一把锁关闭 ops，锁外发送会与
// close 竞争。队列满时提交方阻塞在这里，以队列容量作为背压上限。
func (w *Writer) Enqueue(op Upsert) <-chan error {
	done := make(chan error, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		done <- ErrExportClosed
		return done
	}
	w.ops <- operation{run: func() error { return w.applyUpsert(op) }, done: done}
	w.mu.Unlock()

	return done
}

// Snapshot 读取导出文件的完整内容（供管理员下载）
// 读取同样经过队列，保证不会看到写了一半的文件。
func (w *Writer) Snapshot() ([]byte, error) {
	var buf []byte
	done := make(chan error, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrExportClosed
	}
	w.ops <- operation{
		run: func() error {
			b, err := os.ReadFile(w.path)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrExportFile, err)
			}
			buf = b
			return nil
		},
		done: done,
	}
	w.mu.Unlock()

	if err := <-done; err != nil {
		return nil, err
	}
	return buf, nil
}

// Close 停止接收新操作并等待队列排空
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ops)
	w.mu.Unlock()

	<-w.stopped
}

// loop 单消费者循环：一次只执行一个操作，完成后才取下一个
func (w *Writer) loop() {
	defer close(w.stopped)
	for op := range w.ops {
		if w.opHook != nil {
			w.opHook("begin")
		}
		err := op.run()
		if w.opHook != nil {
			w.opHook("end")
		}
		if err != nil {
			w.logger.Warn("导出镜像操作失败", zap.Error(err))
		}
		op.done <- err
	}
}

// ensureFile 文件不存在时创建并写入表头
func (w *Writer) ensureFile() error {
	if _, err := os.Stat(w.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrExportFile, err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", w.sheet)

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(columns))
		_ = f.SetCellStyle(w.sheet, "A1", lastCol+"1", headerStyle)
	}
	_ = f.SetColWidth(w.sheet, "A", "J", 18)

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}

	w.logger.Info("导出文件已初始化", zap.String("path", w.path))
	return nil
}

// applyUpsert 整文件读-改-写：按 session_id 线性扫描定位行，
// 命中则只覆盖载荷中出现的列，未命中则追加完整新行；
// 无论哪种情况都刷新 write_timestamp。
func (w *Writer) applyUpsert(op Upsert) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}

	id := strconv.FormatInt(op.SessionID, 10)
	target := -1 // Excel 行号（1 起）
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // 表头
		}
		if row[0] == id {
			target = i + 1
			break
		}
	}

	now := time.Now().Format(time.RFC3339)

	if target > 0 {
		cells := map[int]string{ // 列号（1 起）→ 新值
			2:  op.EmployeeID,
			3:  op.DisplayName,
			4:  op.Date,
			5:  op.ClockInTime,
			6:  op.ClockOutTime,
			7:  op.DurationHuman,
			8:  op.DurationDecimal,
			10: op.DeviceTag,
		}
		for col, val := range cells {
			if val == "" {
				continue
			}
			if err := w.setCell(f, col, target, val); err != nil {
				return err
			}
		}
		if err := w.setCell(f, 9, target, now); err != nil {
			return err
		}
	} else {
		row := []interface{}{
			id,
			op.EmployeeID,
			op.DisplayName,
			op.Date,
			op.ClockInTime,
			op.ClockOutTime,
			op.DurationHuman,
			op.DurationDecimal,
			now,
			op.DeviceTag,
		}
		cell, _ := excelize.CoordinatesToCellName(1, len(rows)+1)
		if err := f.SetSheetRow(w.sheet, cell, &row); err != nil {
			return fmt.Errorf("%w: %v", ErrExportFile, err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}
	return nil
}

func (w *Writer) setCell(f *excelize.File, col, row int, val string) error {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := f.SetCellValue(w.sheet, cell, val); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFile, err)
	}
	return nil
}
