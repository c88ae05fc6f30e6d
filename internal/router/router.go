package routes

import (
	"net/http"

	swaggerHandler "github.com/swaggo/http-swagger"

	_ "github.com/kimberlyPrest/disparo-whatsapp/internal/docs" // swagger docs
	"github.com/kimberlyPrest/disparo-whatsapp/internal/response"
)

type AppDeps struct {
	Home     HomeHandler
	Campaign CampaignHandler
	Dispatch DispatchHandler
}

type HomeHandler interface {
	Index(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type CampaignHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Messages(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
	Pause(w http.ResponseWriter, r *http.Request)
	Resume(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	RetryMessage(w http.ResponseWriter, r *http.Request)
	StartStopScheduler(w http.ResponseWriter, r *http.Request)
}

type DispatchHandler interface {
	Trigger(w http.ResponseWriter, r *http.Request)
}

func Register(mux *http.ServeMux, d AppDeps) {
	mux.HandleFunc("GET /{$}", d.Home.Index)
	mux.HandleFunc("GET /health", d.Home.Health)

	mux.HandleFunc("POST /campaigns", d.Campaign.Create)
	mux.HandleFunc("POST /campaigns/preview", d.Campaign.Preview)
	mux.HandleFunc("GET /campaigns/{id}", d.Campaign.Get)
	mux.HandleFunc("GET /campaigns/{id}/messages", d.Campaign.Messages)
	mux.HandleFunc("POST /campaigns/{id}/pause", d.Campaign.Pause)
	mux.HandleFunc("POST /campaigns/{id}/resume", d.Campaign.Resume)
	mux.HandleFunc("POST /campaigns/{id}/cancel", d.Campaign.Cancel)
	mux.HandleFunc("POST /messages/{id}/retry", d.Campaign.RetryMessage)

	mux.HandleFunc("POST /dispatch", d.Dispatch.Trigger)
	mux.HandleFunc("POST /scheduler", d.Campaign.StartStopScheduler)

	//Swagger
	mux.HandleFunc("GET /swagger/", swaggerHandler.WrapHandler)

	// Fallback handler for undefined routes (404)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.RespondError(w, http.StatusNotFound, "route not found")
	}))
}
