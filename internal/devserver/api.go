package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"chatsync/internal/logging"
	"chatsync/internal/types"
)

const defaultMaxUploadBytes = 32 << 20

type SendMessageRequest struct {
	SessionID   string   `json:"sessionId,omitempty"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}

type SendMessageResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []types.Message `json:"messages"`
}

type UpdateSessionRequest struct {
	Title string `json:"title"`
}

type API struct {
	Version        string
	Sessions       *SessionService
	Logger         logging.Logger
	MaxUploadBytes int64
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/messages", a.Messages)
	mux.HandleFunc("/sessions", a.SessionList)
	mux.HandleFunc("/sessions/", a.SessionByID)
	mux.HandleFunc("/uploads", a.Uploads)
	mux.HandleFunc("/files/", a.Files)
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": a.Version,
	})
}

func (a *API) Messages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	resp, err := a.Sessions.Send(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) SessionList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sessions, err := a.Sessions.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (a *API) SessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		if parts[1] != "save" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := a.Sessions.Save(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	switch r.Method {
	case http.MethodGet:
		session, err := a.Sessions.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	case http.MethodPatch:
		var req UpdateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := a.Sessions.Rename(r.Context(), id, req.Title); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case http.MethodDelete:
		if err := a.Sessions.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Uploads accepts multipart "files" parts and answers with one URL per
// part, in order.
func (a *API) Uploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart body required")
		return
	}
	var urls []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeServiceError(w, uploadError(err))
			return
		}
		if part.FormName() != "files" || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			writeServiceError(w, uploadError(err))
			return
		}
		id := a.Sessions.StoreFile(filepath.Base(part.FileName()), part.Header.Get("Content-Type"), data)
		urls = append(urls, fileURL(r, id))
	}
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "no files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"urls": urls})
}

func (a *API) Files(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/files/"), "/")
	file, ok := a.Sessions.File(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if file.ContentType != "" {
		w.Header().Set("Content-Type", file.ContentType)
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+strings.ReplaceAll(file.Name, `"`, "")+`"`)
	_, _ = w.Write(file.Data)
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &ServiceError{Kind: ServiceErrorTooLarge, Message: "upload too large", Err: err}
	}
	return invalidError("invalid upload", err)
}

func fileURL(r *http.Request, id string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/files/" + id
}
