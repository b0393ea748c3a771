package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"babytrack/backend/internal/gestation"
	"babytrack/backend/internal/summary"
)

type dailySummaryResponse struct {
	BabyID string `json:"baby_id"`
	Date   string `json:"date"`
	summary.DailySummary
}

type weeklyStatsResponse struct {
	BabyID    string               `json:"baby_id"`
	StartDate string               `json:"start_date"`
	Days      summary.WeeklySeries `json:"days"`
	Totals    summary.WeeklyTotals `json:"totals"`
}

type gestationalAgeResponse struct {
	PregnancyID string `json:"pregnancy_id"`
	AsOf        string `json:"as_of"`
	gestation.Result
}

func (a *App) getDailySummary(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}

	daily, err := a.calc.ComputeDailySummary(c.Request.Context(), baby.ID, date)
	if err != nil {
		a.writeUnavailable(c, "summary", err)
		return
	}
	c.JSON(http.StatusOK, dailySummaryResponse{
		BabyID:       baby.ID,
		Date:         date.Format("2006-01-02"),
		DailySummary: daily,
	})
}

func (a *App) getWeeklyStats(c *gin.Context) {
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
		a.writeUnavailable(c, "weekly stats", err)
		return
	}
	c.JSON(http.StatusOK, weeklyStatsResponse{
		BabyID:    baby.ID,
		StartDate: startDate.Format("2006-01-02"),
		Days:      series,
		Totals:    series.Totals(),
	})
}

func (a *App) getGestationalAge(c *gin.Context) {
	asOf := a.now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = summary.DayBounds(parsed, a.loc).Start
	}
	pregnancy, ok := a.requirePregnancy(c)
	if !ok {
		return
	}

	// stored pregnancy dates are calendar dates; anchor them in the reference zone
	lastPeriod := summary.DayBounds(pregnancy.LastPeriodDate.UTC(), a.loc).Start
	dueDate := summary.DayBounds(pregnancy.EstimatedDueDate.UTC(), a.loc).Start

	c.JSON(http.StatusOK, gestationalAgeResponse{
		PregnancyID: pregnancy.ID,
		AsOf:        asOf.In(a.loc).Format(time.RFC3339),
		Result:      gestation.Compute(lastPeriod, dueDate, asOf),
	})
}
