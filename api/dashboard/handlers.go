package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/feederwatch/core/tickets"
)

func (h *Handler) fail(c *gin.Context, err error) {
	h.log.Errorf("dashboard %s: %v", c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *Handler) latestData(c *gin.Context) {
	snap, err := h.svc.LatestData(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) customerHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer id must be an integer"})
		return
	}
	hist, err := h.svc.CustomerHistory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handler) engineerTasks(c *gin.Context) {
	tasks, err := h.svc.EngineerTasks(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) adminSummary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) listIssues(c *gin.Context) {
	c.JSON(http.StatusOK, h.tickets.Issues())
}

func (h *Handler) raiseIssue(c *gin.Context) {
	var in tickets.NewIssue
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issue, err := h.tickets.Raise(in)
	if err != nil {
		h.ticketError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

type assignRequest struct {
	Engineer string `json:"engineer_name"`
}

func (h *Handler) assignIssue(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.svc.KnowsEngineer(req.Engineer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown engineer"})
		return
	}
	n, err := h.tickets.Assign(c.Param("id"), req.Engineer)
	if err != nil {
		h.ticketError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) resolveIssue(c *gin.Context) {
	var req resolveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	issue, err := h.tickets.Resolve(c.Param("id"), req.Notes)
	if err != nil {
		h.ticketError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

type taskStatusRequest struct {
	Engineer string `json:"engineer_name"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

func (h *Handler) updateTaskStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("customer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer id must be an integer"})
		return
	}
	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ts, err := h.tickets.UpdateTaskStatus(id, req.Engineer, req.Status, req.Notes)
	if err != nil {
		h.ticketError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (h *Handler) notifications(c *gin.Context) {
	notes, unread := h.tickets.Notifications(c.Param("engineer"))
	c.JSON(http.StatusOK, gin.H{"notifications": notes, "unread": unread})
}

func (h *Handler) ticketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tickets.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tickets.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.fail(c, err)
	}
}
