package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"babytrack/backend/internal/records"
)

func (a *App) listBabies(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	all, err := a.store.ListBabies(c.Request.Context())
	if err != nil {
		a.writeUnavailable(c, "baby list", err)
		return
	}
	babies := make([]records.Baby, 0, len(all))
	for _, baby := range all {
		if baby.UserID == user.ID {
			babies = append(babies, baby)
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": babies})
}

func (a *App) createBaby(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createBabyRequest
	if !mustJSON(c, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(c, http.StatusBadRequest, "name is required")
		return
	}
	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
		return
	}

	baby, err := a.store.CreateBaby(c.Request.Context(), records.Baby{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      name,
		BirthDate: birthDate,
		Gender:    strings.TrimSpace(req.Gender),
	})
	if err != nil {
		a.writeWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, baby)
}

func (a *App) getBaby(c *gin.Context) {
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, baby)
}

func (a *App) createPregnancy(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createPregnancyRequest
	if !mustJSON(c, &req) {
		return
	}
	lastPeriod, err := parseDate(req.LastPeriodDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "last_period_date must be YYYY-MM-DD")
		return
	}
	dueDate := lastPeriod.AddDate(0, 0, fullTermDays)
	if strings.TrimSpace(req.EstimatedDueDate) != "" {
		dueDate, err = parseDate(req.EstimatedDueDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "estimated_due_date must be YYYY-MM-DD")
			return
		}
	}
	if !dueDate.After(lastPeriod) {
		writeError(c, http.StatusBadRequest, "estimated_due_date must be after last_period_date")
		return
	}

	pregnancy := records.Pregnancy{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		LastPeriodDate:   lastPeriod,
		EstimatedDueDate: dueDate,
		Notes:            strings.TrimSpace(req.Notes),
		IsActive:         true,
	}
	if req.BabyID != nil && strings.TrimSpace(*req.BabyID) != "" {
		baby, statusCode, err := a.getBabyWithAccess(c, user.ID, strings.TrimSpace(*req.BabyID))
		if err != nil {
			writeError(c, statusCode, err.Error())
			return
		}
		pregnancy.BabyID = &baby.ID
	}
	if err := pregnancy.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.store.CreatePregnancy(c.Request.Context(), pregnancy)
	if err != nil {
		a.writeWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *App) getPregnancy(c *gin.Context) {
	pregnancy, ok := a.requirePregnancy(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pregnancy)
}

func sortNewestFirst(events []records.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt().After(events[j].OccurredAt())
	})
}
