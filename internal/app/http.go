package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"picksheet/api/internal/document"
	"picksheet/api/internal/export"
	"picksheet/api/internal/persist"
	"picksheet/api/internal/search"
)

// maxUploadBytes bounds a single multipart library upload.
const maxUploadBytes = 32 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Unlock endpoint is reachable while locked.
	if r.Method == http.MethodPost && r.URL.Path == "/api/unlock" {
		var body struct {
			Passphrase string `json:"passphrase"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		token, err := s.service.Gate().Unlock(body.Passphrase)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":    token,
			"required": s.service.Gate().Required(),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/lock" {
		s.service.Gate().Lock(bearerToken(r))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Everything else mutating requires an unlock token when a
	// passphrase is configured. Reads stay open.
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		if err := s.service.Gate().Check(bearerToken(r)); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
	}

	switch {
	case r.URL.Path == "/api/state":
		s.handleState(w, r)
	case r.URL.Path == "/api/state/undo" || r.URL.Path == "/api/state/redo":
		s.handleHistory(w, r)
	case r.URL.Path == "/api/stages" || strings.HasPrefix(r.URL.Path, "/api/stages/"):
		s.handleStages(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/rows"):
		s.handleRows(w, r)
	case r.URL.Path == "/api/library" || strings.HasPrefix(r.URL.Path, "/api/library/"):
		s.handleLibrary(w, r)
	case r.URL.Path == "/api/settings":
		s.handleSettings(w, r)
	case r.URL.Path == "/api/answer-key":
		s.handleAnswerKey(w, r)
	case r.URL.Path == "/api/stats" || strings.HasPrefix(r.URL.Path, "/api/stats/"):
		s.handleStats(w, r)
	case r.URL.Path == "/api/export" || r.URL.Path == "/api/export/stats":
		s.handleExport(w, r)
	case r.URL.Path == "/api/import":
		s.handleImport(w, r)
	case r.URL.Path == "/api/quicksave":
		s.handleQuickSave(w, r)
	case r.URL.Path == "/api/archive" || strings.HasPrefix(r.URL.Path, "/api/archive/"):
		s.handleArchive(w, r)
	case r.URL.Path == "/api/search":
		s.handleSearch(w, r)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeJSON(w, http.StatusOK, s.service.State())
	case http.MethodDelete:
		scope := strings.TrimSpace(r.URL.Query().Get("scope"))
		var payload StatePayload
		var err error
		if scope == "design" {
			payload, err = s.service.ResetDesign()
		} else {
			payload, err = s.service.ResetAll()
		}
		writeResult(w, payload, err)
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/undo") {
		writeJSON(w, http.StatusOK, s.service.Undo())
		return
	}
	writeJSON(w, http.StatusOK, s.service.Redo())
}

func (s *HTTPServer) handleStages(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path) // ["api", "stages", ...]

	if len(segments) == 2 {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		payload, err := s.service.AddStage()
		writeResult(w, payload, err)
		return
	}

	stageID := segments[2]
	switch {
	case len(segments) == 3 && r.Method == http.MethodDelete:
		payload, err := s.service.DeleteStage(stageID)
		writeResult(w, payload, err)
	case len(segments) == 3 && r.Method == http.MethodPut:
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.RenameStage(stageID, body.Name)
		writeResult(w, payload, err)
	case len(segments) == 4 && segments[3] == "select" && r.Method == http.MethodPost:
		payload, err := s.service.SelectStage(stageID)
		writeResult(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleRows(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path) // ["api", "rows", ...]

	if len(segments) == 3 && segments[2] == "count" && r.Method == http.MethodPut {
		var body struct {
			Count int `json:"count"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.SetRowCount(body.Count)
		writeResult(w, payload, err)
		return
	}

	if len(segments) < 4 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	index, err := strconv.Atoi(segments[2])
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "row index must be an integer", nil)
		return
	}

	switch {
	case segments[3] == "move" && r.Method == http.MethodPost:
		var body struct {
			Direction int `json:"direction"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.MoveRow(index, body.Direction)
		writeResult(w, payload, err)
	case segments[3] == "picks" && r.Method == http.MethodDelete:
		payload, err := s.service.ClearRowPicks(index)
		writeResult(w, payload, err)
	case segments[3] == "picks" && r.Method == http.MethodPut:
		var body struct {
			Area string       `json:"area"`
			Slot int          `json:"slot"`
			Src  document.Ref `json:"src"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.SetPick(index, body.Area, body.Slot, body.Src)
		writeResult(w, payload, err)
	case segments[3] == "nick" && r.Method == http.MethodPut:
		var body struct {
			Nick     string `json:"nick"`
			FontSize *int   `json:"fontSize"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if body.FontSize != nil {
			payload, err := s.service.SetRowNickFontSize(index, *body.FontSize)
			writeResult(w, payload, err)
			return
		}
		payload, err := s.service.SetRowNick(index, body.Nick)
		writeResult(w, payload, err)
	case segments[3] == "avatar" && r.Method == http.MethodPut:
		var body struct {
			Src       string `json:"src"`
			Transform *struct {
				Scale int `json:"scale"`
				PosX  int `json:"posX"`
				PosY  int `json:"posY"`
			} `json:"transform"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if body.Transform != nil {
			payload, err := s.service.SetRowAvatarTransform(index, body.Transform.Scale, body.Transform.PosX, body.Transform.PosY)
			writeResult(w, payload, err)
			return
		}
		payload, err := s.service.SetRowAvatar(index, body.Src)
		writeResult(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleLibrary(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path) // ["api", "library", ...]

	if len(segments) == 2 {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		uploads, err := readUploads(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error(), nil)
			return
		}
		if len(uploads) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no files in upload", nil)
			return
		}
		payload, err := s.service.UploadAssets(r.Context(), uploads)
		writeResult(w, payload, err)
		return
	}

	assetID := segments[2]
	switch {
	case len(segments) == 3 && r.Method == http.MethodDelete:
		payload, err := s.service.RemoveAsset(assetID)
		writeResult(w, payload, err)
	case len(segments) == 3 && r.Method == http.MethodPut:
		var body struct {
			Name       *string `json:"name"`
			CategoryID *string `json:"categoryId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		switch {
		case body.Name != nil:
			payload, err := s.service.RenameAsset(assetID, *body.Name)
			writeResult(w, payload, err)
		case body.CategoryID != nil:
			payload, err := s.service.MoveAssetToCategory(assetID, *body.CategoryID)
			writeResult(w, payload, err)
		default:
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name or categoryId is required", nil)
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	var body struct {
		Key   string  `json:"key"`
		Value *int    `json:"value"`
		On    *bool   `json:"on"`
		Color *string `json:"color"`
		Image *string `json:"image"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	switch {
	case body.Color != nil:
		payload, err := s.service.SetBackgroundColor(*body.Color)
		writeResult(w, payload, err)
	case body.Image != nil:
		payload, err := s.service.SetBackgroundImage(*body.Image)
		writeResult(w, payload, err)
	case body.Key != "" && body.Value != nil:
		payload, err := s.service.SetNumericSetting(body.Key, *body.Value)
		writeResult(w, payload, err)
	case body.Key != "" && body.On != nil:
		payload, err := s.service.SetToggle(body.Key, *body.On)
		writeResult(w, payload, err)
	default:
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "nothing to update", nil)
	}
}

func (s *HTTPServer) handleAnswerKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	var body struct {
		Area string       `json:"area"`
		Src  document.Ref `json:"src"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.ToggleCorrect(body.Area, body.Src)
	writeResult(w, payload, err)
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path) // ["api", "stats", ...]

	if len(segments) == 2 {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			key := strings.TrimSpace(r.URL.Query().Get("sort"))
			if key == "" {
				key = "score"
			}
			direction := strings.TrimSpace(r.URL.Query().Get("direction"))
			if direction == "" {
				direction = "descending"
			}
			filter := strings.TrimSpace(r.URL.Query().Get("filter"))
			writeJSON(w, http.StatusOK, map[string]any{
				"entries": s.service.Ranking(key, direction, filter),
			})
		case http.MethodPost:
			result, err := s.service.CommitStats()
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, result)
		case http.MethodDelete:
			payload, err := s.service.ClearStats()
			writeResult(w, payload, err)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(segments) == 3 && segments[2] == "popularity" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		writeJSON(w, http.StatusOK, s.service.Popularity())
		return
	}
	if len(segments) == 3 && segments[2] == "frequencies" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		writeJSON(w, http.StatusOK, s.service.Frequencies())
		return
	}
	if len(segments) == 3 && segments[2] == "team-names" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		writeJSON(w, http.StatusOK, s.service.TeamNames())
		return
	}

	entryID := segments[2]
	switch {
	case len(segments) == 3 && r.Method == http.MethodDelete:
		payload, err := s.service.DeleteStatEntry(entryID)
		writeResult(w, payload, err)
	case len(segments) == 3 && r.Method == http.MethodPut:
		var body struct {
			Nick string `json:"nick"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.RenameStatEntry(entryID, body.Nick)
		writeResult(w, payload, err)
	case len(segments) == 4 && segments[3] == "restore" && r.Method == http.MethodPost:
		payload, err := s.service.RestoreRowFromStat(entryID)
		writeResult(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if strings.HasSuffix(r.URL.Path, "/stats") {
		key := strings.TrimSpace(r.URL.Query().Get("sort"))
		if key == "" {
			key = "score"
		}
		direction := strings.TrimSpace(r.URL.Query().Get("direction"))
		if direction == "" {
			direction = "descending"
		}
		format := export.FormatXLS
		if strings.TrimSpace(r.URL.Query().Get("format")) == "pdf" {
			format = export.FormatPDF
		}
		result, err := s.service.ExportStats(key, direction, format)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeDownload(w, result.Filename, result.MimeType, result.Data)
		return
	}

	blob, err := s.service.ExportFull()
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeDownload(w, blob.Name, blob.MimeType, blob.Data)
}

func (s *HTTPServer) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	target := persist.ImportTarget(strings.TrimSpace(r.URL.Query().Get("target")))
	if target == "" {
		target = persist.ImportFull
	}
	if target != persist.ImportFull && target != persist.ImportRows && target != persist.ImportStats {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "target must be full, rows or stats", nil)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read payload", nil)
		return
	}
	defer r.Body.Close()

	payload, err := s.service.Import(raw, target)
	writeResult(w, payload, err)
}

func (s *HTTPServer) handleQuickSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	var body struct {
		Author  string `json:"author"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.Author == "" {
		body.Author = "editor"
	}

	// Degrade to a plain export download when no archive is configured.
	if !s.service.ArchiveEnabled() {
		blob, err := s.service.ExportFull()
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeDownload(w, blob.Name, blob.MimeType, blob.Data)
		return
	}

	info, err := s.service.QuickSave(body.Author, body.Message)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": info})
}

func (s *HTTPServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path) // ["api", "archive", ...]

	if len(segments) == 2 {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		items, err := s.service.ArchiveHistory(limit)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": items})
		return
	}

	hash := segments[2]
	switch {
	case len(segments) == 4 && segments[3] == "restore" && r.Method == http.MethodPost:
		payload, err := s.service.RestoreSnapshot(hash)
		writeResult(w, payload, err)
	case len(segments) == 4 && segments[3] == "tag" && r.Method == http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
			return
		}
		if err := s.service.TagSnapshot(hash, body.Name); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	q := search.Query{
		Text:       strings.TrimSpace(r.URL.Query().Get("q")),
		FilterType: search.ResultType(strings.TrimSpace(r.URL.Query().Get("type"))),
		Limit:      20,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		q.Limit = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		q.Offset = parsed
	}
	writeJSON(w, http.StatusOK, s.service.Search(q))
}

// readUploads collects multipart files in a stable order: field names
// sorted, files within a field as sent.
func readUploads(r *http.Request) ([]Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var uploads []Upload
	for _, field := range fields {
		for _, header := range r.MultipartForm.File[field] {
			file, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("open upload %s", header.Filename)
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				return nil, fmt.Errorf("read upload %s", header.Filename)
			}
			uploads = append(uploads, Upload{Filename: header.Filename, Data: data})
		}
	}
	return uploads, nil
}

func writeResult(w http.ResponseWriter, payload StatePayload, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeDownload(w http.ResponseWriter, filename, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
