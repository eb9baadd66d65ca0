package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sfsync/sfsync-api/internal/services"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
)

// Response texts returned to the Salesforce Flow callout. They are part of
// the external contract and must stay stable.
const (
	msgSuccess      = "Successfully processed Salesforce notification."
	msgParseFailure = "Error: Could not parse record ID from notification."
	msgSecretsOther = "Error: Could not retrieve credentials from Secret Manager."
	msgFetchFailure = "Error: Could not retrieve data for record %s from Salesforce."
)

type SyncHandler struct {
	service services.SyncProcessor
}

func NewSyncHandler(service services.SyncProcessor) *SyncHandler {
	return &SyncHandler{service: service}
}

// HandleSyncNotification processes one webhook delivery. Parse failures map
// to 400, secret and CRM fetch failures to 500; warehouse or notification
// failures inside the pipeline still produce a 200.
func (h *SyncHandler) HandleSyncNotification(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondText(c, http.StatusBadRequest, msgParseFailure, err)
		return
	}

	result, err := h.service.ProcessNotification(c.Request.Context(), body)
	if err != nil {
		h.respondPipelineError(c, result, err)
		return
	}

	attachError(c, result.InsertErr)
	attachError(c, result.NotifyErr)

	c.String(http.StatusOK, msgSuccess)
}

func (h *SyncHandler) respondPipelineError(c *gin.Context, result *services.SyncResult, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrMalformedPayload),
		apperrors.Is(err, apperrors.ErrMissingField):
		respondText(c, http.StatusBadRequest, msgParseFailure, err)

	case apperrors.Is(err, apperrors.ErrSecretMissing),
		apperrors.Is(err, apperrors.ErrSecretStoreUnreachable):
		respondText(c, http.StatusInternalServerError, msgSecretsOther, err)

	default:
		recordID := ""
		if result != nil {
			recordID = result.RecordID
		}
		respondText(c, http.StatusInternalServerError, fmt.Sprintf(msgFetchFailure, recordID), err)
	}
}
