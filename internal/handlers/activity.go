package handlers

import (
	"errors"
	"net/http"
	"strconv"

	dom "todoapp/internal/domain"
	"todoapp/internal/dto"
	"todoapp/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List godoc
// @Summary      List activities (paginated, newest first)
// @Tags         activities
// @Produce      json
// @Param        page     query  int  false  "Page (1-indexed)"
// @Param        limit    query  int  false  "Page size"
// @Param        todo_id  query  int  false  "Filter by todo"
// @Success      200  {object}  dto.ListActivitiesResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var todoID *int64
	if raw := c.Query("todo_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid todo_id"})
			return
		}
		todoID = &id
	}

	list, p, err := h.svc.List(c.Request.Context(), todoID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ListActivitiesResponse{
		Activities: activitiesToResponses(list),
		Pagination: dto.PaginationResponse{
			Page:  p.Page,
			Limit: p.Limit,
			Total: p.Total,
			Pages: p.Pages,
		},
	})
}

// ListByTodo godoc
// @Summary      List all activities of one todo (orphans included)
// @Tags         activities
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {array}   dto.ActivityResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /todos/{id}/activities [get]
func (h *ActivityHandler) ListByTodo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.GetByTodoID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activitiesToResponses(list))
}

// GetByID godoc
// @Summary      Get one activity
// @Tags         activities
// @Produce      json
// @Param        id   path      int  true  "Activity ID"
// @Success      200  {object}  dto.ActivityResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /activities/{id} [get]
func (h *ActivityHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activityToResponse(dom.ActivityWithTodo{Activity: a}))
}

// Stats godoc
// @Summary      Activity aggregates (total, today, by action, last 7 days)
// @Tags         activities
// @Produce      json
// @Success      200  {object}  dto.ActivityStatsResponse
// @Failure      500  {object}  map[string]string
// @Router       /activities/stats [get]
func (h *ActivityHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := dto.ActivityStatsResponse{
		Total:     st.Total,
		Today:     st.Today,
		ByAction:  make([]dto.ActionCountResponse, 0, len(st.ByAction)),
		Last7Days: make([]dto.DayCountResponse, 0, len(st.Last7Days)),
	}
	for _, ac := range st.ByAction {
		resp.ByAction = append(resp.ByAction, dto.ActionCountResponse{Action: string(ac.Action), Count: ac.Count})
	}
	for _, dc := range st.Last7Days {
		resp.Last7Days = append(resp.Last7Days, dto.DayCountResponse{Date: dc.Day.Format("2006-01-02"), Count: dc.Count})
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete one activity (admin)
// @Tags         activities
// @Security     CookieAuth
// @Param        id   path  int  true  "Activity ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearAll godoc
// @Summary      Delete every activity (admin, irreversible)
// @Tags         activities
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ClearActivitiesResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /activities [delete]
func (h *ActivityHandler) ClearAll(c *gin.Context) {
	n, err := h.svc.ClearAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ClearActivitiesResponse{Deleted: n})
}

func activityToResponse(a dom.ActivityWithTodo) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          a.ID,
		TodoID:      a.TodoID,
		Action:      string(a.Action),
		Description: a.Description,
		OldValue:    a.OldValue,
		NewValue:    a.NewValue,
		UserIP:      a.UserIP,
		UserAgent:   a.UserAgent,
		TodoTitle:   a.TodoTitle,
		CreatedAt:   a.CreatedAt,
	}
}

func activitiesToResponses(list []dom.ActivityWithTodo) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, len(list))
	for i := range list {
		out[i] = activityToResponse(list[i])
	}
	return out
}
