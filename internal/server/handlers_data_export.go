package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"babytrack/backend/internal/export"
)

func (a *App) exportWeeklyCSV(c *gin.Context) {
	startDate, err := parseDate(c.Param("start_date"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}

	series, err := a.calc.ComputeWeeklyStats(c.Request.Context(), baby.ID, startDate)
	if err != nil {
		a.writeUnavailable(c, "weekly export", err)
		return
	}

	var out bytes.Buffer
	if err := export.WriteWeeklyCSV(&out, baby.ID, series); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to build CSV")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.WeeklyFilename(baby.Name, startDate)))
	c.String(http.StatusOK, out.String())
}
