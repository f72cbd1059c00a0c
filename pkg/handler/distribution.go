package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"token_airdrop/models"
)

// Counts per status over the whole log. GET /api/distribution/summary
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.status.Summary(c.Request.Context())
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	wrapOkJSON(c, map[string]interface{}{
		"data": summary,
	})
}

// Full log in order, optionally ?status=DONE|FAILED|PENDING.
func (h *Handler) GetRecords(c *gin.Context) {
	var filter *models.Status
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			newErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		filter = &status
	}

	records, err := h.status.Records(c.Request.Context(), filter)
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	wrapOkJSON(c, map[string]interface{}{
		"data":  records,
		"count": len(records),
	})
}

func (h *Handler) GetRecipient(c *gin.Context) {
	publicKey := strings.TrimSpace(c.Param("publicKey"))
	if publicKey == "" {
		newErrorResponse(c, http.StatusBadRequest, "publicKey is required")
		return
	}

	res, err := h.status.Recipient(c.Request.Context(), publicKey)
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	wrapOkJSON(c, map[string]interface{}{
		"data": res,
	})
}
