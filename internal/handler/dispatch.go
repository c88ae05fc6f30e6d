package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/dispatcher"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/request"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/response"
)

// DispatchHandler is the entry point hit by the external periodic trigger.
type DispatchHandler struct {
	disp *dispatcher.Dispatcher
}

// NewDispatchHandler constructs a DispatchHandler.
func NewDispatchHandler(disp *dispatcher.Dispatcher) *DispatchHandler {
	return &DispatchHandler{disp: disp}
}

// dispatchBody is the bare wire shape the trigger expects; the standard
// envelope is intentionally not used here.
type dispatchBody struct {
	Success bool                `json:"success"`
	Results []dispatcher.Result `json:"results"`
}

// Trigger godoc
// @Summary     Run the dispatcher
// @Description Runs one dispatcher invocation. An empty body scans all
// @Description eligible campaigns; a body with campaign_id targets one.
// @Description Always answers 200 so the external trigger never retries.
// @Tags        dispatch
// @Accept      json
// @Produce     json
// @Param       request body request.DispatchRequest false "Optional campaign target"
// @Success     200 {object} handler.dispatchBody
// @Router      /dispatch [post]
func (h *DispatchHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req request.DispatchRequest
	// An empty or malformed body means a full scan.
	_ = json.NewDecoder(r.Body).Decode(&req)

	target := uuid.Nil
	if req.CampaignID != "" {
		parsed, err := uuid.Parse(req.CampaignID)
		if err != nil {
			log.Printf("[Dispatch] Ignoring invalid campaign_id %q", req.CampaignID)
			response.WriteJSON(w, http.StatusOK, dispatchBody{Success: false, Results: []dispatcher.Result{}})
			return
		}
		target = parsed
	}

	results := h.disp.Run(r.Context(), target)
	if results == nil {
		results = []dispatcher.Result{}
	}

	response.WriteJSON(w, http.StatusOK, dispatchBody{Success: true, Results: results})
}
