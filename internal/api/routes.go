package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/store"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/objects", func(r chi.Router) {
		r.Get("/", listObjectsHandler(cfg))
		r.Get("/{object}/curves", listCurvesHandler(cfg))
		r.Post("/{object}/keys", insertKeysHandler(cfg))
		r.Post("/{object}/remap", remapHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var n int
		if err := cfg.Document.Edit(func() error {
			n = len(cfg.Document.ObjectNames())
			return nil
		}); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			Objects: n,
		})
	}
}

func listObjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp ObjectsResponse
		if err := cfg.Document.Edit(func() error {
			resp.Objects = cfg.Document.ObjectNames()
			return nil
		}); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listCurvesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "object")

		resp := CurvesResponse{Object: name, Curves: []CurveResponse{}}
		err := cfg.Document.Edit(func() error {
			obj := cfg.Document.Object(name)
			if obj == nil {
				return errObjectNotFound
			}
			if obj.Anim == nil {
				return nil
			}
			if obj.Anim.Action != nil {
				for _, c := range obj.Anim.Action.Curves {
					resp.Curves = append(resp.Curves, CurveToResponse(c, false))
				}
			}
			for _, c := range obj.Anim.Drivers {
				resp.Curves = append(resp.Curves, CurveToResponse(c, true))
			}
			return nil
		})
		if err != nil {
			WriteError(w, http.StatusNotFound, "object not found", string(keying.ErrCodeOwnerNotFound))
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

var errObjectNotFound = errors.New("object not found")

func insertKeysHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "object")

		var req InsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		t, err := cast.ToFloat64E(req.Time)
		if err != nil || req.Time == nil {
			WriteError(w, http.StatusBadRequest, "time must be a number", "BAD_REQUEST")
			return
		}
		targets := make([]keying.Target, len(req.Targets))
		for i, s := range req.Targets {
			if targets[i], err = keying.ParseTarget(s); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
		}
		flags, err := keying.ParseFlags(req.Flags)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		keyType, err := fcurve.ParseKeyType(req.KeyType)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		// The batch is logged under the document lock so the log stays in
		// seq order.
		var res *keying.CombinedResult
		err = cfg.Document.Edit(func() error {
			res = cfg.Dispatcher.InsertKeys(name, targets, t, flags, keyType)
			if cfg.Store == nil {
				return nil
			}
			return cfg.Store.WriteBatch(r.Context(), store.NewLogEntry(targets, keyType, res))
		})
		if err != nil {
			cfg.Logger.Error("failed to log batch", "batch", res.BatchID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to log batch", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, res)
	}
}

func remapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "object")

		var req RemapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		t, err := cast.ToFloat64E(req.Time)
		if err != nil || req.Time == nil {
			WriteError(w, http.StatusBadRequest, "time must be a number", "BAD_REQUEST")
			return
		}

		resp := RemapResponse{Object: name, To: req.To, Time: t}
		err = cfg.Document.Edit(func() error {
			if cfg.Document.Object(name) == nil {
				return errObjectNotFound
			}
			switch req.To {
			case "", "local":
				resp.To = "local"
				resp.Result = keying.RemapTime(cfg.Document, name, t)
			case "global":
				resp.Result = keying.MapTime(cfg.Document, name, t)
			default:
				return errBadDirection
			}
			return nil
		})
		switch {
		case errors.Is(err, errObjectNotFound):
			WriteError(w, http.StatusNotFound, "object not found", string(keying.ErrCodeOwnerNotFound))
			return
		case err != nil:
			WriteError(w, http.StatusBadRequest, `to must be "local" or "global"`, "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

var errBadDirection = errors.New("bad remap direction")
