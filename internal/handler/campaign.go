package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/request"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/response"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/scheduler"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/service"
)

// CampaignHandler wires the operator command endpoints to the campaign
// service and the background scheduler.
type CampaignHandler struct {
	svc    service.CampaignService
	schSvc scheduler.SchedulerService
}

// NewCampaignHandler constructs a new CampaignHandler with its dependencies.
func NewCampaignHandler(svc service.CampaignService, schSvc scheduler.SchedulerService) *CampaignHandler {
	return &CampaignHandler{
		svc:    svc,
		schSvc: schSvc,
	}
}

// Create godoc
// @Summary     Create campaign
// @Description Admits a new campaign with its recipient list. On a calendar
// @Description conflict with an existing campaign, responds 409 with the
// @Description earliest conflict-free start.
// @Tags        campaigns
// @Accept      json
// @Produce     json
// @Param       request body request.CreateCampaignRequest true "Campaign definition"
// @Success     201 {object} response.CampaignResponse
// @Failure     400 {object} map[string]string
// @Failure     409 {object} response.ConflictResponse
// @Router      /campaigns [post]
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCampaignRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	owner, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "ownerId must be a UUID")
		return
	}

	scheduledAt := time.Now()
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	}

	recipients := make([]service.RecipientInput, len(req.Recipients))
	for i, row := range req.Recipients {
		recipients[i] = service.RecipientInput{
			Name:  row.Name,
			Phone: row.Phone,
			Body:  row.Message,
		}
	}

	c, conflict, err := h.svc.Create(r.Context(), service.CreateInput{
		OwnerID:     owner,
		Name:        req.Name,
		Config:      req.Config,
		ScheduledAt: scheduledAt,
		Recipients:  recipients,
	})
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if conflict != nil {
		response.RespondConflict(w, response.ConflictPayload{
			CampaignID:    conflict.CampaignID.String(),
			CampaignName:  conflict.Name,
			SuggestedTime: conflict.SuggestedAt,
		})
		return
	}

	response.RespondJSON(w, http.StatusCreated, response.FromDomainCampaign(c))
}

// Get godoc
// @Summary     Get campaign
// @Description Returns the campaign with its status, counters and timestamps.
// @Tags        campaigns
// @Produce     json
// @Param       id path string true "Campaign id"
// @Success     200 {object} response.CampaignResponse
// @Failure     404 {object} map[string]string
// @Router      /campaigns/{id} [get]
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.RespondError(w, http.StatusNotFound, "campaign not found")
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDomainCampaign(c))
}

// Messages godoc
// @Summary     List campaign messages
// @Description Returns a paginated list of the campaign's message rows,
// @Description optionally filtered by status.
// @Tags        campaigns
// @Produce     json
// @Param       id     path  string true  "Campaign id"
// @Param       status query string false "Message status filter"
// @Param       page   query int    false "Page number"         default(1)
// @Param       limit  query int    false "Page size (max 100)" default(20)
// @Success     200 {object} response.MessagesResponse
// @Failure     500 {object} map[string]string
// @Router      /campaigns/{id}/messages [get]
func (h *CampaignHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	page := 1
	limit := 20

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	status := message.Status(r.URL.Query().Get("status"))

	items, total, err := h.svc.Messages(r.Context(), id, status, page, limit)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := response.MessagesPayload{
		Items: response.FromDomainMessages(items),
		Total: total,
		Page:  page,
		Limit: limit,
	}

	response.RespondJSON(w, http.StatusOK, payload)
}

// Preview godoc
// @Summary     Preview schedule
// @Description Returns the expected send instants for a candidate policy.
// @Description The preview uses the same calculation the dispatcher enforces.
// @Tags        campaigns
// @Accept      json
// @Produce     json
// @Param       request body request.PreviewRequest true "Policy, start and count"
// @Success     200 {object} response.PreviewResponse
// @Failure     400 {object} map[string]string
// @Router      /campaigns/preview [post]
func (h *CampaignHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req request.PreviewRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Config.Validate(); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	startAt := time.Now()
	if req.StartAt != nil {
		startAt = *req.StartAt
	}

	payload := response.PreviewPayload{
		PlannedAt: h.svc.Preview(req.Config, startAt, req.Count),
	}

	response.RespondJSON(w, http.StatusOK, payload)
}

// Pause godoc
// @Summary     Pause campaign
// @Description Holds dispatching. Takes effect no later than the next claim.
// @Tags        campaigns
// @Produce     json
// @Param       id path string true "Campaign id"
// @Success     200 {object} response.JSONResponse
// @Failure     400 {object} map[string]string
// @Router      /campaigns/{id}/pause [post]
func (h *CampaignHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.svc.Pause)
}

// Resume godoc
// @Summary     Resume campaign
// @Description Reactivates a paused campaign.
// @Tags        campaigns
// @Produce     json
// @Param       id path string true "Campaign id"
// @Success     200 {object} response.JSONResponse
// @Failure     400 {object} map[string]string
// @Router      /campaigns/{id}/resume [post]
func (h *CampaignHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.svc.Resume)
}

// Cancel godoc
// @Summary     Cancel campaign
// @Description Terminates the campaign. Messages already in flight still commit.
// @Tags        campaigns
// @Produce     json
// @Param       id path string true "Campaign id"
// @Success     200 {object} response.JSONResponse
// @Failure     400 {object} map[string]string
// @Router      /campaigns/{id}/cancel [post]
func (h *CampaignHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.svc.Cancel)
}

// RetryMessage godoc
// @Summary     Retry failed message
// @Description Resets a failed message to waiting. A no-op on any other state.
// @Tags        messages
// @Produce     json
// @Param       id path string true "Message id"
// @Success     200 {object} response.RetryResponse
// @Failure     400 {object} map[string]string
// @Router      /messages/{id}/retry [post]
func (h *CampaignHandler) RetryMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reset, err := h.svc.RetryMessage(r.Context(), id)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, response.RetryPayload{Reset: reset})
}

// StartStopScheduler godoc
// @Summary     Control scheduler
// @Description Starts or stops the periodic dispatch trigger.
// @Tags        scheduler
// @Accept      json
// @Produce     json
// @Param       request body request.SchedulerRequest true "Scheduler action (start|stop)"
// @Success     200 {object} response.SchedulerControlResponse
// @Failure     400 {object} map[string]string
// @Router      /scheduler [post]
func (h *CampaignHandler) StartStopScheduler(w http.ResponseWriter, r *http.Request) {
	var req request.SchedulerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "start":
		if err := h.schSvc.Start(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{Message: "scheduler started"})

	case "stop":
		if err := h.schSvc.Stop(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{Message: "scheduler stopped"})

	default:
		response.RespondError(w, http.StatusBadRequest, "action must be 'start' or 'stop'")
	}
}

// command runs an id-scoped operator verb with shared decoding and error mapping.
func (h *CampaignHandler) command(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrTerminalCampaign) || errors.Is(err, campaign.ErrIllegalTransition) {
			status = http.StatusConflict
		}
		response.RespondError(w, status, err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
