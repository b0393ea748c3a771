package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"babytrack/backend/internal/timeline"
)

func (a *App) getTimeline(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	owners := timeline.Owners{
		BabyID:      strings.TrimSpace(c.Query("baby_id")),
		PregnancyID: strings.TrimSpace(c.Query("pregnancy_id")),
	}
	if owners.BabyID == "" && owners.PregnancyID == "" {
		writeError(c, http.StatusBadRequest, "baby_id or pregnancy_id is required")
		return
	}

	filters := timeline.DefaultFilters()
	var err error
	if filters.ShowBaby, err = parseOptionalBool(c.Query("show_baby"), true); err != nil {
		writeError(c, http.StatusBadRequest, "show_baby must be a boolean")
		return
	}
	if filters.ShowPregnancy, err = parseOptionalBool(c.Query("show_pregnancy"), true); err != nil {
		writeError(c, http.StatusBadRequest, "show_pregnancy must be a boolean")
		return
	}
	if raw := strings.TrimSpace(c.Query("types")); raw != "" {
		kinds, unknown, ok := parseKindList(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "unknown event type: "+unknown)
			return
		}
		filters.EventTypes = kinds
	}
	rng, ok := a.parseRange(c)
	if !ok {
		return
	}

	if owners.BabyID != "" {
		if _, statusCode, err := a.getBabyWithAccess(c, user.ID, owners.BabyID); err != nil {
			writeError(c, statusCode, err.Error())
			return
		}
	}
	if owners.PregnancyID != "" {
		if _, statusCode, err := a.getPregnancyWithAccess(c, user.ID, owners.PregnancyID); err != nil {
			writeError(c, statusCode, err.Error())
			return
		}
	}

	sources, err := timeline.Fetch(c.Request.Context(), a.store, owners, filters, rng)
	if err != nil {
		a.writeUnavailable(c, "timeline", err)
		return
	}
	c.JSON(http.StatusOK, timeline.Build(sources, filters, a.loc))
}
