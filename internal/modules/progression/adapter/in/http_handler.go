package in

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	progressionin "studystreak/internal/modules/progression/port/in"
)

type HTTPHandler struct {
	usecase progressionin.Usecase
}

func NewHTTPHandler(usecase progressionin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

func (h HTTPHandler) Register(r gin.IRouter) {
	r.GET("/progression/level", h.level)
	r.GET("/characters", h.characters)
	r.GET("/characters/day/:day", h.characterForDay)
	r.GET("/characters/active", h.activeCharacter)
}

func (h HTTPHandler) level(c *gin.Context) {
	xp, err := strconv.ParseFloat(c.DefaultQuery("xp", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "xp must be a number"})
		return
	}
	c.JSON(http.StatusOK, h.usecase.Level(xp))
}

func (h HTTPHandler) characters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"characters": h.usecase.Characters()})
}

func (h HTTPHandler) characterForDay(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be an integer"})
		return
	}
	character, ok := h.usecase.CharacterForStreakDay(day)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no character unlocks on this day"})
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h HTTPHandler) activeCharacter(c *gin.Context) {
	streak, err := strconv.Atoi(c.DefaultQuery("streak", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "streak must be an integer"})
		return
	}
	c.JSON(http.StatusOK, h.usecase.ActiveCharacter(streak))
}
