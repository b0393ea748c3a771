package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"babytrack/backend/internal/records"
	"babytrack/backend/internal/store"
	"babytrack/backend/internal/summary"
)

type validator interface {
	Validate() error
}

// saveRecord validates and inserts one event, answering 201 with the stored value.
func (a *App) saveRecord(c *gin.Context, event interface {
	records.Event
	validator
}) {
	if err := event.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.Insert(c.Request.Context(), event); err != nil {
		a.writeWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (a *App) createFeed(c *gin.Context) {
	var req feedRequest
	if !mustJSON(c, &req) {
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	a.saveRecord(c, records.Feed{
		ID:              uuid.NewString(),
		BabyID:          baby.ID,
		Type:            records.FeedType(strings.TrimSpace(req.Type)),
		AmountML:        req.AmountML,
		DurationMinutes: req.DurationMinutes,
		Timestamp:       a.timestampOrNow(req.Timestamp),
		Notes:           strings.TrimSpace(req.Notes),
	})
}

func (a *App) createNappy(c *gin.Context) {
	var req nappyRequest
	if !mustJSON(c, &req) {
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	a.saveRecord(c, records.Nappy{
		ID:        uuid.NewString(),
		BabyID:    baby.ID,
		Type:      records.NappyType(strings.TrimSpace(req.Type)),
		Timestamp: a.timestampOrNow(req.Timestamp),
		Notes:     strings.TrimSpace(req.Notes),
	})
}

func (a *App) createSleep(c *gin.Context) {
	var req sleepRequest
	if !mustJSON(c, &req) {
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	session := records.SleepSession{
		ID:        uuid.NewString(),
		BabyID:    baby.ID,
		Type:      records.SleepType(strings.TrimSpace(req.Type)),
		StartTime: a.timestampOrNow(req.StartTime),
		Location:  strings.TrimSpace(req.Location),
		Notes:     strings.TrimSpace(req.Notes),
	}
	if req.EndTime != nil {
		closed, err := session.Close(*req.EndTime)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		session = closed
	}
	a.saveRecord(c, session)
}

func (a *App) getActiveSleep(c *gin.Context) {
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	session, err := a.store.OpenSleepSession(c.Request.Context(), baby.ID)
	if err != nil {
		a.writeUnavailable(c, "active sleep", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"baby_id": baby.ID, "session": session})
}

func (a *App) endSleep(c *gin.Context) {
	var req endRecordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	closed, err := a.store.CloseSleepSession(c.Request.Context(), baby.ID, strings.TrimSpace(c.Param("record_id")), a.timestampOrNow(req.EndTime))
	if err != nil {
		a.writeWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, closed)
}

func (a *App) createHealthRecord(c *gin.Context) {
	var req healthRequest
	if !mustJSON(c, &req) {
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	a.saveRecord(c, records.HealthRecord{
		ID:        uuid.NewString(),
		BabyID:    baby.ID,
		Type:      strings.TrimSpace(req.Type),
		Value:     strings.TrimSpace(req.Value),
		Details:   req.Details,
		Timestamp: a.timestampOrNow(req.Timestamp),
		Notes:     strings.TrimSpace(req.Notes),
	})
}

func (a *App) createGrowthRecord(c *gin.Context) {
	var req growthRequest
	if !mustJSON(c, &req) {
		return
	}
	baby, ok := a.requireBaby(c)
	if !ok {
		return
	}
	a.saveRecord(c, records.GrowthRecord{
		ID:                  uuid.NewString(),
		BabyID:              baby.ID,
		WeightKg:            req.WeightKg,
		HeightCm:            req.HeightCm,
		HeadCircumferenceCm: req.HeadCircumferenceCm,
		Timestamp:           a.timestampOrNow(req.Timestamp),
		Notes:               strings.TrimSpace(req.Notes),
	})
}

func (a *App) createContraction(c *gin.Context) {
	var req contractionRequest
	if !mustJSON(c, &req) {
		return
	}
	pregnancy, ok := a.requirePregnancy(c)
	if !ok {
		return
	}
	contraction := records.Contraction{
		ID:          uuid.NewString(),
		PregnancyID: pregnancy.ID,
		StartTime:   a.timestampOrNow(req.StartTime),
		Intensity:   req.Intensity,
		Notes:       strings.TrimSpace(req.Notes),
	}
	if req.EndTime != nil {
		closed, err := contraction.Close(*req.EndTime)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		contraction = closed
	}
	a.saveRecord(c, contraction)
}

func (a *App) endContraction(c *gin.Context) {
	var req endRecordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	pregnancy, ok := a.requirePregnancy(c)
	if !ok {
		return
	}
	closed, err := a.store.CloseContraction(c.Request.Context(), pregnancy.ID, strings.TrimSpace(c.Param("record_id")), a.timestampOrNow(req.EndTime))
	if err != nil {
		a.writeWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, closed)
}

func (a *App) createMovement(c *gin.Context) {
	var req movementRequest
	if !mustJSON(c, &req) {
		return
	}
	pregnancy, ok := a.requirePregnancy(c)
	if !ok {
		return
	}
	a.saveRecord(c, records.FetalMovement{
		ID:              uuid.NewString(),
		PregnancyID:     pregnancy.ID,
		Timestamp:       a.timestampOrNow(req.Timestamp),
		DurationSeconds: req.DurationSeconds,
		Stimulus:        strings.TrimSpace(req.Stimulus),
		Notes:           strings.TrimSpace(req.Notes),
	})
}

func (a *App) createMaternalHealth(c *gin.Context) {
	var req maternalHealthRequest
	if !mustJSON(c, &req) {
		return
	}
	pregnancy, ok := a.requirePregnancy(c)
	if !ok {
		return
	}
	a.saveRecord(c, records.MaternalHealthReading{
		ID:          uuid.NewString(),
		PregnancyID: pregnancy.ID,
		Type:        records.MaternalReadingType(strings.TrimSpace(req.Type)),
		Timestamp:   a.timestampOrNow(req.Timestamp),
		Value:       strings.TrimSpace(req.Value),
		Details:     req.Details,
		Notes:       strings.TrimSpace(req.Notes),
	})
}

// parseRange reads optional from/to dates into inclusive reference-zone day bounds.
func (a *App) parseRange(c *gin.Context) (*store.TimeRange, bool) {
	fromRaw := strings.TrimSpace(c.Query("from"))
	toRaw := strings.TrimSpace(c.Query("to"))
	if fromRaw == "" && toRaw == "" {
		return nil, true
	}

	rng := &store.TimeRange{
		Start: time.Unix(0, 0).UTC(),
		End:   a.now().UTC().AddDate(100, 0, 0),
	}
	if fromRaw != "" {
		from, err := parseDate(fromRaw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return nil, false
		}
		rng.Start = summary.DayBounds(from, a.loc).Start
	}
	if toRaw != "" {
		to, err := parseDate(toRaw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return nil, false
		}
		rng.End = summary.DayBounds(to, a.loc).End
	}
	if rng.End.Before(rng.Start) {
		writeError(c, http.StatusBadRequest, "to must not be before from")
		return nil, false
	}
	return rng, true
}

func (a *App) listBabyRecords(kind records.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rng, ok := a.parseRange(c)
		if !ok {
			return
		}
		baby, ok := a.requireBaby(c)
		if !ok {
			return
		}
		a.writeRecordList(c, baby.ID, kind, rng)
	}
}

func (a *App) listPregnancyRecords(kind records.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rng, ok := a.parseRange(c)
		if !ok {
			return
		}
		pregnancy, ok := a.requirePregnancy(c)
		if !ok {
			return
		}
		a.writeRecordList(c, pregnancy.ID, kind, rng)
	}
}

func (a *App) writeRecordList(c *gin.Context, ownerID string, kind records.Kind, rng *store.TimeRange) {
	found, err := a.store.Query(c.Request.Context(), ownerID, kind, rng)
	if err != nil {
		a.writeUnavailable(c, string(kind)+" records", err)
		return
	}
	sortNewestFirst(found)
	c.JSON(http.StatusOK, gin.H{"items": found})
}
