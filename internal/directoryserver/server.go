// Package directoryserver serves a read-only user directory over HTTP.
package directoryserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/idilsaglam/habits/internal/logger"
	"github.com/idilsaglam/habits/internal/model"
)

// Seed is the content served by the directory.
type Seed struct {
	Users  map[string]model.User  `json:"users"`
	Habits map[string]model.Habit `json:"habits"`
}

// LoadSeed reads a seed file. An empty path returns SampleSeed.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return SampleSeed(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return Seed{}, fmt.Errorf("json unmarshal: %w", err)
	}
	for key, u := range seed.Users {
		if u.ID == "" {
			u.ID = key
			seed.Users[key] = u
		}
	}
	return seed, nil
}

// SampleSeed is a small directory for local runs.
func SampleSeed() Seed {
	health := model.Category{Name: "Health", Color: model.Color{Hue: 0.33, Saturation: 0.6, Brightness: 0.8}}
	mind := model.Category{Name: "Mind", Color: model.Color{Hue: 0.6, Saturation: 0.5, Brightness: 0.9}}
	users := []model.User{
		{ID: "u1", Name: "Alice", Bio: "Runs before sunrise.", Color: &model.Color{Hue: 0.95, Saturation: 0.5, Brightness: 0.9}},
		{ID: "u2", Name: "Bob", Bio: "Reads a chapter a day."},
		{ID: "u3", Name: "Carol", Bio: "Meditates twice daily.", Color: &model.Color{Hue: 0.55, Saturation: 0.6, Brightness: 0.8}},
		{ID: "u4", Name: "Dave", Bio: "Never skips leg day.", Color: &model.Color{Hue: 0.1, Saturation: 0.7, Brightness: 0.9}},
	}
	habits := []model.Habit{
		{Name: "Run", Category: health, Info: "Thirty minutes at an easy pace."},
		{Name: "Drink water", Category: health, Info: "Eight glasses."},
		{Name: "Read", Category: mind, Info: "One chapter."},
		{Name: "Meditate", Category: mind, Info: "Ten quiet minutes."},
	}

	seed := Seed{Users: map[string]model.User{}, Habits: map[string]model.Habit{}}
	for _, u := range users {
		seed.Users[u.ID] = u
	}
	for _, h := range habits {
		seed.Habits[model.HabitKey(h)] = h
	}
	return seed
}

type server struct {
	seed Seed
}

// NewRouter returns the HTTP routes for seed, wrapped in request logging.
func NewRouter(seed Seed) http.Handler {
	s := &server{seed: seed}
	if s.seed.Users == nil {
		s.seed.Users = map[string]model.User{}
	}
	if s.seed.Habits == nil {
		s.seed.Habits = map[string]model.Habit{}
	}

	r := chi.NewRouter()
	r.Get("/health", s.getHealth)
	r.Get("/users", s.getUsers)
	r.Get("/users/{id}", s.getUser)
	r.Get("/habits", s.getHabits)

	return logger.WithLoggingHTTPMiddleware(r)
}

func (s *server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) getUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.seed.Users)
}

func (s *server) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, ok := s.seed.Users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *server) getHabits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.seed.Habits)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("write response", "error", err)
	}
}
