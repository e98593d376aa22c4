package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	_ "p9e.in/towerops/docs"
	"p9e.in/towerops/handlers"
	"p9e.in/towerops/middleware"
	"p9e.in/towerops/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.SecurityMiddleware)
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.GetCurrentUser).Methods("GET")
	api.HandleFunc("/profile/password", handlers.ChangePassword).Methods("PUT")

	registerBuilderRoutes(api)
	registerFieldworkRoutes(api)
	registerFileRoutes(api)
	registerBillingRoutes(api)

	// =====================================================
	// Admin Routes (company management)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	registerAdminRoutes(admin)

	return r
}

// builder routes: forms, fields, decisions, layouts — manager territory
func registerBuilderRoutes(api *mux.Router) {
	managers := []string{models.RoleAdmin, models.RoleManager}

	b := api.NewRoute().Subrouter()
	b.Use(func(next http.Handler) http.Handler {
		return middleware.RequireRole(managers, next)
	})

	b.HandleFunc("/forms", handlers.GetForms).Methods("GET")
	b.HandleFunc("/forms", handlers.CreateForm).Methods("POST")
	b.HandleFunc("/forms/{id}", handlers.GetForm).Methods("GET")
	b.HandleFunc("/forms/{id}", handlers.UpdateForm).Methods("PUT")
	b.HandleFunc("/forms/{id}", handlers.DeleteForm).Methods("DELETE")
	b.HandleFunc("/forms/{id}/children", handlers.AddFormChild).Methods("POST")
	b.HandleFunc("/forms/{id}/children/{childId}", handlers.RemoveFormChild).Methods("DELETE")
	b.HandleFunc("/forms/{id}/children/{childId}/move", handlers.MoveFormChild).Methods("PUT")
	b.HandleFunc("/forms/{id}/unused-forms", handlers.GetUnusedSubForms).Methods("GET")
	b.HandleFunc("/forms/{id}/unused-fields", handlers.GetUnusedSubFields).Methods("GET")
	b.HandleFunc("/forms/{id}/freshness", handlers.GetFormFreshness).Methods("GET")

	b.HandleFunc("/fields", handlers.GetFields).Methods("GET")
	b.HandleFunc("/fields", handlers.CreateField).Methods("POST")
	b.HandleFunc("/fields/{id}", handlers.UpdateField).Methods("PUT")
	b.HandleFunc("/fields/{id}", handlers.DeleteField).Methods("DELETE")

	b.HandleFunc("/decisions", handlers.CreateDecision).Methods("POST")
	b.HandleFunc("/decisions/{id}", handlers.UpdateDecision).Methods("PUT")
	b.HandleFunc("/decisions/{id}", handlers.DeleteDecision).Methods("DELETE")

	b.HandleFunc("/layouts", handlers.GetMainLayouts).Methods("GET")
	b.HandleFunc("/layouts/{id}", handlers.GetLayout).Methods("GET")
	b.HandleFunc("/layouts/{id}/objects", handlers.AddLayoutObject).Methods("POST")
	b.HandleFunc("/layouts/{id}/objects", handlers.RemoveLayoutObject).Methods("DELETE")
	b.HandleFunc("/layouts/{id}/objects/move", handlers.MoveLayoutObject).Methods("PUT")
	b.HandleFunc("/layouts/{id}/rows", handlers.AddLayoutRow).Methods("POST")
	b.HandleFunc("/layouts/{id}/columns", handlers.AddLayoutColumn).Methods("POST")
	b.HandleFunc("/layouts/{id}/widths", handlers.UpdateLayoutWidths).Methods("PUT")
	b.HandleFunc("/layouts/{id}/unused-fields", handlers.GetLayoutUnusedFields).Methods("GET")
	b.HandleFunc("/specials", handlers.CreateSpecial).Methods("POST")

	b.HandleFunc("/tasks", handlers.CreateTask).Methods("POST")
	b.HandleFunc("/tasks/{id}", handlers.DeleteTask).Methods("DELETE")
}

// field-work routes: jobs, answers, media links — crew and up
func registerFieldworkRoutes(api *mux.Router) {
	api.HandleFunc("/jobs", handlers.GetJobs).Methods("GET")
	api.HandleFunc("/jobs", handlers.CreateJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", handlers.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/crew", handlers.AssignCrew).Methods("PUT")
	api.HandleFunc("/jobs/{id}/{action:accept|start|suspend|complete|cancel|close}", handlers.TransitionJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/tasks/{taskId}/progress", handlers.GetTaskProgress).Methods("GET")
	api.HandleFunc("/jobs/{id}/tasks/{taskId}/report", handlers.RenderReport).Methods("GET")
	api.HandleFunc("/jobs/{id}/tasks/{taskId}/export.xlsx", handlers.ExportTaskToExcel).Methods("GET")
	api.HandleFunc("/jobs/{id}/tasks/{taskId}/export.csv", handlers.ExportTaskToCSV).Methods("GET")
	api.HandleFunc("/tasks", handlers.GetTasks).Methods("GET")

	api.HandleFunc("/answers", handlers.SubmitAnswer).Methods("POST")
	api.HandleFunc("/answers", handlers.GetAnswer).Methods("GET")
	api.HandleFunc("/decisions/resolve", handlers.ResolveDecision).Methods("POST")

	api.HandleFunc("/sites", handlers.GetAllSites).Methods("GET")
	api.HandleFunc("/sites/{id}/equipment", handlers.GetSiteEquipment).Methods("GET")

	api.HandleFunc("/notifications", handlers.GetNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods("PUT")
	api.HandleFunc("/subscriptions", handlers.Subscribe).Methods("POST")
	api.HandleFunc("/subscriptions/{id}", handlers.Unsubscribe).Methods("DELETE")
}

func registerFileRoutes(api *mux.Router) {
	api.HandleFunc("/media", handlers.UploadMediaHandler).Methods("POST")
	api.HandleFunc("/media/{id}", handlers.GetMedia).Methods("GET")
	api.HandleFunc("/media/{id}", handlers.DeleteMedia).Methods("DELETE")
	api.HandleFunc("/media/{id}/answer", handlers.LinkMediaToAnswer).Methods("PUT")
	api.HandleFunc("/media/{id}/rescaled", handlers.RescaleCallback).Methods("POST")
}

func registerBillingRoutes(api *mux.Router) {
	managers := []string{models.RoleAdmin, models.RoleManager}

	// Billing is manager territory, but a user can be granted
	// "invoices:*" (or narrower) without a role change.
	b := api.NewRoute().Subrouter()
	b.Use(func(next http.Handler) http.Handler {
		return middleware.RequirePermission("invoices:manage", managers, next)
	})

	b.HandleFunc("/invoices", handlers.GetInvoices).Methods("GET")
	b.HandleFunc("/invoices", handlers.CreateInvoice).Methods("POST")
	b.HandleFunc("/invoices/{id}", handlers.GetInvoice).Methods("GET")
	b.HandleFunc("/invoices/{id}/send", handlers.SendInvoice).Methods("POST")
	b.HandleFunc("/invoices/{id}/paid", handlers.MarkInvoicePaid).Methods("POST")
	b.HandleFunc("/invoices/{id}/void", handlers.VoidInvoice).Methods("POST")
	b.HandleFunc("/quotes", handlers.CreateQuote).Methods("POST")
	b.HandleFunc("/quotes/{id}/accept", handlers.AcceptQuote).Methods("POST")
}

func registerAdminRoutes(admin *mux.Router) {
	admins := []string{models.RoleAdmin}
	admin.Use(func(next http.Handler) http.Handler {
		return middleware.RequireRole(admins, next)
	})

	admin.HandleFunc("/users", handlers.GetAllUsers).Methods("GET")
	admin.HandleFunc("/users", handlers.Register).Methods("POST")
	admin.HandleFunc("/company", handlers.GetCompany).Methods("GET")
	admin.HandleFunc("/company", handlers.UpdateCompany).Methods("PUT")
	admin.HandleFunc("/customers", handlers.GetCustomers).Methods("GET")
	admin.HandleFunc("/customers", handlers.CreateCustomer).Methods("POST")
	admin.HandleFunc("/customers/{id}", handlers.UpdateCustomer).Methods("PUT")
	admin.HandleFunc("/sites", handlers.CreateSite).Methods("POST")
	admin.HandleFunc("/sites/{id}", handlers.UpdateSite).Methods("PUT")
	admin.HandleFunc("/sites/{id}", handlers.DeleteSite).Methods("DELETE")
	admin.HandleFunc("/antennas", handlers.CreateAntenna).Methods("POST")
	admin.HandleFunc("/ports", handlers.CreatePort).Methods("POST")
	admin.HandleFunc("/radios", handlers.CreateRadio).Methods("POST")
	admin.HandleFunc("/microwaves", handlers.CreateMicrowave).Methods("POST")
	admin.HandleFunc("/fw-antennas", handlers.CreateFWAntenna).Methods("POST")
	admin.HandleFunc("/equipment/{kind}/{id}", handlers.DeleteEquipment).Methods("DELETE")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
