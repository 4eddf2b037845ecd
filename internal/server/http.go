package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/siggame/Cerveau-sub002/internal/games"
	"github.com/siggame/Cerveau-sub002/internal/storage"
	"github.com/siggame/Cerveau-sub002/internal/version"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// NewRouter собирает HTTP-поверхность сервера: здоровье, версия, статус
// лобби, выдача гейм-логов и вебсокет-транспорт.
func NewRouter(lobby *Lobby, store *storage.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, version.Info())
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"games":    games.Names(),
			"sessions": lobby.Status(),
		})
	})

	r.Get("/gamelogs/{filename}", func(w http.ResponseWriter, req *http.Request) {
		path, err := store.Path(chi.URLParam(req, "filename"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		http.ServeFile(w, req, path)
	})

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ServeWS(lobby, w, req)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("не удалось записать HTTP-ответ")
	}
}

// requestLogger пишет каждый HTTP-запрос в общий структурный лог.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// вебсокет живет дольше запроса, его логирует сам клиент
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP-запрос")
	})
}
