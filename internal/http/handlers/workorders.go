package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mosesedem/servixing-sub001/internal/http/middleware"
	"github.com/Mosesedem/servixing-sub001/internal/modules/users"
	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

type WorkOrderHandler struct {
	Repo   *workorders.Repo
	Logger *slog.Logger
}

func NewWorkOrderHandler(repo *workorders.Repo, logger *slog.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{Repo: repo, Logger: logger}
}

// GET /api/workorders  (auth)
func (h *WorkOrderHandler) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	res, err := h.Repo.ListByUser(c.Request.Context(), workorders.ListByUserParams{
		UserID:   u.ID,
		Page:     page,
		PageSize: size,
		Status:   c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": res.Items, "total": res.Total})
}

// GET /api/workorders/:id  (auth: owner or admin)
func (h *WorkOrderHandler) Get(c *gin.Context) {
	wo, err := h.Repo.GetWithDevice(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Work order not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	u, _ := middleware.CurrentUser(c)
	if (wo.UserID == nil || *wo.UserID != u.ID) && u.Role != users.RoleAdmin {
		middleware.Fail(c, apperr.ForbiddenErr("You do not have access to this work order."))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": wo})
}
