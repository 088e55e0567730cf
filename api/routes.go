package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"lifeboard/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	settingsHandler *handlers.SettingsHandler,
	usersHandler *handlers.UsersHandler,
	contentHandler *handlers.ContentHandler,
	libraryHandler *handlers.LibraryHandler,
	recsHandler *handlers.RecommendationsHandler,
	tasksHandler *handlers.TasksHandler,
	habitsHandler *handlers.HabitsHandler,
	moodsHandler *handlers.MoodsHandler,
	notesHandler *handlers.NotesHandler,
	decisionsHandler *handlers.DecisionsHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	// Settings
	api.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", settingsHandler.PutSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings", settingsHandler.Options).Methods(http.MethodOptions)

	// Profiles
	api.HandleFunc("/users", usersHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/users", usersHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/users", usersHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}", usersHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/users/{userID}", usersHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}", usersHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/pin", usersHandler.SetPin).Methods(http.MethodPut)
	api.HandleFunc("/users/{userID}/pin", usersHandler.ClearPin).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/pin", usersHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/pin/verify", usersHandler.VerifyPin).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/pin/verify", usersHandler.Options).Methods(http.MethodOptions)

	// Content browsing (not profile-scoped, raw provider lists)
	api.HandleFunc("/content/popular", contentHandler.Popular).Methods(http.MethodGet)
	api.HandleFunc("/content/popular", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/content/trending", contentHandler.Trending).Methods(http.MethodGet)
	api.HandleFunc("/content/trending", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/search", contentHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/search", handleOptions).Methods(http.MethodOptions)

	// Per-profile routes
	user := api.PathPrefix("/users/{userID}").Subrouter()

	// Movie library
	user.HandleFunc("/movie", libraryHandler.Add).Methods(http.MethodPost)
	user.HandleFunc("/movie", libraryHandler.Update).Methods(http.MethodPut)
	user.HandleFunc("/movie", libraryHandler.Remove).Methods(http.MethodDelete)
	user.HandleFunc("/movie", libraryHandler.Get).Methods(http.MethodGet)
	user.HandleFunc("/movie", libraryHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/movies", libraryHandler.List).Methods(http.MethodGet)
	user.HandleFunc("/movies", libraryHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/movie/not-interested", libraryHandler.Dismiss).Methods(http.MethodPost)
	user.HandleFunc("/movie/not-interested", libraryHandler.Undismiss).Methods(http.MethodDelete)
	user.HandleFunc("/movie/not-interested", libraryHandler.Dismissed).Methods(http.MethodGet)
	user.HandleFunc("/movie/not-interested", libraryHandler.Options).Methods(http.MethodOptions)

	// Recommendations
	user.HandleFunc("/recommendations", recsHandler.Batch).Methods(http.MethodGet)
	user.HandleFunc("/recommendations", recsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/recommendations/single", recsHandler.Single).Methods(http.MethodGet)
	user.HandleFunc("/recommendations/single", recsHandler.Options).Methods(http.MethodOptions)

	// Tasks
	user.HandleFunc("/tasks", tasksHandler.List).Methods(http.MethodGet)
	user.HandleFunc("/tasks", tasksHandler.Create).Methods(http.MethodPost)
	user.HandleFunc("/tasks", tasksHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/tasks/{taskID}", tasksHandler.Update).Methods(http.MethodPut)
	user.HandleFunc("/tasks/{taskID}", tasksHandler.Delete).Methods(http.MethodDelete)
	user.HandleFunc("/tasks/{taskID}", tasksHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/tasks/{taskID}/toggle", tasksHandler.Toggle).Methods(http.MethodPost)
	user.HandleFunc("/tasks/{taskID}/toggle", tasksHandler.Options).Methods(http.MethodOptions)

	// Habits
	user.HandleFunc("/habits", habitsHandler.List).Methods(http.MethodGet)
	user.HandleFunc("/habits", habitsHandler.Create).Methods(http.MethodPost)
	user.HandleFunc("/habits", habitsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/habits/{habitID}", habitsHandler.Rename).Methods(http.MethodPut)
	user.HandleFunc("/habits/{habitID}", habitsHandler.Delete).Methods(http.MethodDelete)
	user.HandleFunc("/habits/{habitID}", habitsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/habits/{habitID}/entries", habitsHandler.Entries).Methods(http.MethodGet)
	user.HandleFunc("/habits/{habitID}/entries", habitsHandler.MarkDay).Methods(http.MethodPost)
	user.HandleFunc("/habits/{habitID}/entries", habitsHandler.UnmarkDay).Methods(http.MethodDelete)
	user.HandleFunc("/habits/{habitID}/entries", habitsHandler.Options).Methods(http.MethodOptions)

	// Mood journal
	user.HandleFunc("/moods", moodsHandler.List).Methods(http.MethodGet)
	user.HandleFunc("/moods", moodsHandler.Upsert).Methods(http.MethodPost)
	user.HandleFunc("/moods", moodsHandler.Delete).Methods(http.MethodDelete)
	user.HandleFunc("/moods", moodsHandler.Options).Methods(http.MethodOptions)

	// Notes
	user.HandleFunc("/notes", notesHandler.List).Methods(http.MethodGet)
	user.HandleFunc("/notes", notesHandler.Create).Methods(http.MethodPost)
	user.HandleFunc("/notes", notesHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/notes/{noteID}", notesHandler.Get).Methods(http.MethodGet)
	user.HandleFunc("/notes/{noteID}", notesHandler.Update).Methods(http.MethodPut)
	user.HandleFunc("/notes/{noteID}", notesHandler.Delete).Methods(http.MethodDelete)
	user.HandleFunc("/notes/{noteID}", notesHandler.Options).Methods(http.MethodOptions)

	// Decision matrices
	user.HandleFunc("/decisions", decisionsHandler.List).Methods(http.MethodGet)
	user.HandleFunc("/decisions", decisionsHandler.Create).Methods(http.MethodPost)
	user.HandleFunc("/decisions", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}", decisionsHandler.Get).Methods(http.MethodGet)
	user.HandleFunc("/decisions/{decisionID}", decisionsHandler.Delete).Methods(http.MethodDelete)
	user.HandleFunc("/decisions/{decisionID}", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}/criteria", decisionsHandler.AddCriterion).Methods(http.MethodPost)
	user.HandleFunc("/decisions/{decisionID}/criteria", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}/criteria/{criterionID}", decisionsHandler.RemoveCriterion).Methods(http.MethodDelete)
	user.HandleFunc("/decisions/{decisionID}/criteria/{criterionID}", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}/options", decisionsHandler.AddOption).Methods(http.MethodPost)
	user.HandleFunc("/decisions/{decisionID}/options", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}/options/{optionID}", decisionsHandler.RemoveOption).Methods(http.MethodDelete)
	user.HandleFunc("/decisions/{decisionID}/options/{optionID}", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}/scores", decisionsHandler.SetScore).Methods(http.MethodPut)
	user.HandleFunc("/decisions/{decisionID}/scores", decisionsHandler.Options).Methods(http.MethodOptions)
	user.HandleFunc("/decisions/{decisionID}/results", decisionsHandler.Results).Methods(http.MethodGet)
	user.HandleFunc("/decisions/{decisionID}/results", decisionsHandler.Options).Methods(http.MethodOptions)
}
