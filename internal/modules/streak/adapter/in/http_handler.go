package in

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studystreak/internal/modules/streak/dto"
	streakin "studystreak/internal/modules/streak/port/in"
	"studystreak/internal/platform/httpx"
)

type HTTPHandler struct {
	usecase streakin.Usecase
	social  streakin.SocialUsecase
}

func NewHTTPHandler(usecase streakin.Usecase, social streakin.SocialUsecase) HTTPHandler {
	return HTTPHandler{usecase: usecase, social: social}
}

func (h HTTPHandler) Register(r gin.IRouter) {
	r.POST("/users", h.register)
	users := r.Group("/users/:id")
	users.GET("", h.getUser)
	users.POST("/sessions", h.completeSession)
	users.POST("/streak/validate", h.validateStreak)
	users.POST("/streak/repair", h.repairStreak)
	users.POST("/sync/today", h.syncToday)
	users.POST("/sync/xp", h.syncXP)
	users.GET("/history", h.history)
	users.GET("/feed", h.feed)
	users.POST("/following/:target", h.follow)
	users.DELETE("/following/:target", h.unfollow)
}

type sessionRequest struct {
	DurationSeconds int    `json:"duration_seconds"`
	SubjectID       string `json:"subject_id"`
	ChapterID       string `json:"chapter_id"`
	SessionID       string `json:"session_id"`
}

func (h HTTPHandler) register(c *gin.Context) {
	var input dto.RegisterInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}
	out, err := h.usecase.Register(c.Request.Context(), input)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h HTTPHandler) getUser(c *gin.Context) {
	out, err := h.usecase.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) completeSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	out, err := h.usecase.CompleteSession(c.Request.Context(), dto.CompleteSessionInput{
		UserID:          c.Param("id"),
		DurationSeconds: req.DurationSeconds,
		SubjectID:       req.SubjectID,
		ChapterID:       req.ChapterID,
		SessionID:       req.SessionID,
	})
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h HTTPHandler) validateStreak(c *gin.Context) {
	out, err := h.usecase.ValidateStreak(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) repairStreak(c *gin.Context) {
	out, err := h.usecase.RepairStreak(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) syncToday(c *gin.Context) {
	out, err := h.usecase.SyncToday(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) syncXP(c *gin.Context) {
	out, err := h.usecase.SyncXP(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) history(c *gin.Context) {
	days, ok := queryInt(c, "days")
	if !ok {
		return
	}
	out, err := h.usecase.History(c.Request.Context(), dto.HistoryInput{UserID: c.Param("id"), Days: days})
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) feed(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	out, err := h.social.Feed(c.Request.Context(), dto.FeedInput{UserID: c.Param("id"), Limit: limit})
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": out})
}

func (h HTTPHandler) follow(c *gin.Context) {
	out, err := h.social.Follow(c.Request.Context(), dto.FollowInput{UserID: c.Param("id"), TargetID: c.Param("target")})
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) unfollow(c *gin.Context) {
	out, err := h.social.Unfollow(c.Request.Context(), dto.FollowInput{UserID: c.Param("id"), TargetID: c.Param("target")})
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return v, true
}
