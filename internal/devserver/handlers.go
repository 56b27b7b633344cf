package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
)

// upgrader upgrades HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow connections from any origin (CORS handled by middleware)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler builds the stub backend's HTTP surface: the REST endpoints
// the client consumes plus the websocket upgrade at /socket.
func Handler(hub *Hub, store *Store, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthCheck)
	r.Get("/socket", serveWS(hub))

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/friends/{userID}", getFriends(store))
		r.Get("/last-messages/{userID}", getLastMessages(store))
		r.Get("/messages/{selfID}/{partnerID}", getMessages(store))
		r.Get("/requests/{userID}", getRequests(store))
		r.Patch("/requests/respond", respondRequest(store))
		r.Patch("/profile", updateProfile(store))
		r.Post("/files", saveFile(store))
	})
	return r
}

// healthCheck reports the stub is alive.
func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveWS handles websocket upgrade requests at /socket.
// Query params: userID, name.
func serveWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		name := r.URL.Query().Get("name")
		if userID == "" {
			http.Error(w, "userID required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("[hub] upgrade failed")
			return
		}

		cl := newClient(hub, conn, userID, name)
		hub.register(cl)
		go cl.writePump()
		go cl.readPump()
	}
}

func getFriends(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		friends := store.Friends(userID)
		if friends == nil {
			friends = []models.Friend{}
		}
		writeJSON(w, http.StatusOK, friends)
	}
}

func getLastMessages(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs := store.LastMessages(chi.URLParam(r, "userID"))
		if msgs == nil {
			msgs = []models.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func getMessages(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs := store.Messages(chi.URLParam(r, "selfID"), chi.URLParam(r, "partnerID"))
		if msgs == nil {
			msgs = []models.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func getRequests(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Requests(chi.URLParam(r, "userID")))
	}
}

func respondRequest(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.RespondRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := store.Respond(body.UserID, body.SenderID, body.Action); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": body.Action})
	}
}

func updateProfile(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.ProfileUpdateBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if body.UserID == "" {
			http.Error(w, "userID is required", http.StatusBadRequest)
			return
		}
		store.UpdateProfile(body)
		writeJSON(w, http.StatusOK, body)
	}
}

func saveFile(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var meta models.FileMetadata
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		store.SaveFile(meta)
		writeJSON(w, http.StatusCreated, meta)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("[devserver] failed to encode response")
	}
}
