package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/packstore/packstore/pkg/packstore"
	"github.com/packstore/packstore/pkg/packstore/manifest"
)

// Handler exposes a packstore.Service over HTTP
type Handler struct {
	service packstore.Service
}

// NewHandler creates a new HTTP handler for the service
func NewHandler(service packstore.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the routes for the packstore API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/index", h.GetMergedView)
	r.Get("/index/search", h.SearchIndex)
	r.Get("/index/{name}", h.GetEntry)
	r.Put("/index/{name}", h.SetEntry)
	r.Post("/index/merge", h.MergeEntries)
	r.Post("/index/unmerge", h.UnmergeEntries)

	r.Post("/storages", h.RegisterStorage)
	r.Get("/storages", h.ListStorages)
	r.Get("/chunk", h.ReadChunk)

	r.Post("/bundles/mount", h.MountBundle)

	return r
}

// EntryResponse is the response body for one index entry
type EntryResponse struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// SetEntryRequest is the request body for writing one index entry
type SetEntryRequest struct {
	ID string `json:"id"`
}

// StorageResponse is the response body for a registered storage
type StorageResponse struct {
	URL           string `json:"url"`
	Extent        int64  `json:"extent"`
	ChunkCount    int    `json:"chunk_count"`
	ResidentBytes int64  `json:"resident_bytes"`
}

// MountBundleResponse summarizes a mounted bundle
type MountBundleResponse struct {
	StorageURL string `json:"storage_url"`
	Entries    int    `json:"entries"`
	Chunks     int    `json:"chunks"`
	MountedAt  time.Time `json:"mounted_at"`
}

// GetMergedView returns a full snapshot of the effective index mapping
func (h *Handler) GetMergedView(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Index().MergedView(r.Context())
	if err != nil {
		slog.Error("Failed to snapshot index", "error", err)
		http.Error(w, "Failed to snapshot index", http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, entryResponses(entries))
}

// SearchIndex returns entries whose name starts with the given prefix
func (h *Handler) SearchIndex(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	entries, err := h.service.Index().Search(r.Context(), func(e packstore.Entry) bool {
		return len(e.Name) >= len(prefix) && e.Name[:len(prefix)] == prefix
	})
	if err != nil {
		slog.Error("Index search failed", "prefix", prefix, "error", err)
		http.Error(w, "Index search failed", http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, entryResponses(entries))
}

// GetEntry resolves one logical name
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	id, ok, err := h.service.Resolve(r.Context(), name)
	if err != nil {
		slog.Error("Failed to resolve name", "name", name, "error", err)
		http.Error(w, "Failed to resolve name", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}

	render.JSON(w, r, EntryResponse{Name: name, ID: id.String()})
}

// SetEntry writes one entry through the aggregator (and its writable
// backing map, if configured)
func (h *Handler) SetEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SetEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := packstore.ParseObjectID(req.ID)
	if err != nil {
		slog.Error("Invalid object ID", "id", req.ID, "error", err)
		http.Error(w, "Invalid object ID", http.StatusBadRequest)
		return
	}

	if err := h.service.SetEntry(r.Context(), name, id); err != nil {
		slog.Error("Failed to set entry", "name", name, "error", err)
		http.Error(w, "Failed to set entry", http.StatusInternalServerError)
		return
	}

	render.NoContent(w, r)
}

// MergeEntries overlays a batch of entries onto the index
func (h *Handler) MergeEntries(w http.ResponseWriter, r *http.Request) {
	entries, ok := decodeEntries(w, r)
	if !ok {
		return
	}
	h.service.Merge(entries...)
	render.NoContent(w, r)
}

// UnmergeEntries removes a batch of entries from the index by name
func (h *Handler) UnmergeEntries(w http.ResponseWriter, r *http.Request) {
	entries, ok := decodeEntries(w, r)
	if !ok {
		return
	}
	h.service.Unmerge(entries...)
	render.NoContent(w, r)
}

// RegisterStorage registers a packed container and its chunk layout
func (h *Handler) RegisterStorage(w http.ResponseWriter, r *http.Request) {
	var req packstore.RegisterStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	storage, err := h.service.RegisterStorage(r.Context(), req)
	if err != nil {
		slog.Error("Failed to register storage", "url", req.URL, "error", err)
		http.Error(w, "Failed to register storage", http.StatusBadRequest)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, storageResponse(storage))
}

// ListStorages lists all registered storages
func (h *Handler) ListStorages(w http.ResponseWriter, r *http.Request) {
	storages := h.service.ListStorages()
	out := make([]StorageResponse, 0, len(storages))
	for _, s := range storages {
		out = append(out, storageResponse(s))
	}
	render.JSON(w, r, out)
}

// ReadChunk streams one chunk's data. A short read from the underlying
// source is reported via the X-Packstore-Bytes-Read header, not as an
// error; the response body is still the full-size buffer.
func (h *Handler) ReadChunk(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	location, err := strconv.ParseInt(r.URL.Query().Get("location"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid location", http.StatusBadRequest)
		return
	}
	size, err := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid size", http.StatusBadRequest)
		return
	}

	data, err := h.service.ReadChunk(r.Context(), packstore.ReadChunkRequest{
		URL:      url,
		Location: location,
		Size:     size,
	})
	if err != nil {
		status := chunkErrorStatus(err)
		slog.Error("Failed to read chunk", "url", url, "location", location, "size", size, "error", err)
		http.Error(w, "Failed to read chunk", status)
		return
	}

	storage, err := h.service.GetStorage(url)
	if err == nil {
		if chunk, cerr := storage.OpenChunk(location, size); cerr == nil {
			w.Header().Set("X-Packstore-Bytes-Read", strconv.FormatInt(chunk.BytesRead(), 10))
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// MountBundle reads a manifest from the request body and mounts it
func (h *Handler) MountBundle(w http.ResponseWriter, r *http.Request) {
	m, err := manifest.Mount(r.Context(), h.service, r.Body)
	if err != nil {
		slog.Error("Failed to mount bundle", "error", err)
		if errors.Is(err, manifest.ErrCorrupt) || errors.Is(err, manifest.ErrUnsupportedVersion) {
			http.Error(w, "Invalid manifest", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to mount bundle", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, MountBundleResponse{
		StorageURL: m.StorageURL,
		Entries:    len(m.Entries),
		Chunks:     len(m.Chunks),
		MountedAt:  time.Now().UTC(),
	})
}

func decodeEntries(w http.ResponseWriter, r *http.Request) ([]packstore.Entry, bool) {
	var entries []packstore.Entry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		http.Error(w, fmt.Sprintf("Invalid entries: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return entries, true
}

func entryResponses(entries []packstore.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{Name: e.Name, ID: e.ID.String()})
	}
	return out
}

func storageResponse(s *packstore.Storage) StorageResponse {
	return StorageResponse{
		URL:           s.URL(),
		Extent:        s.Extent(),
		ChunkCount:    len(s.Chunks()),
		ResidentBytes: s.ResidentBytes(),
	}
}

func chunkErrorStatus(err error) int {
	var missing *packstore.MissingProviderError
	switch {
	case errors.Is(err, packstore.ErrStorageNotFound):
		return http.StatusNotFound
	case errors.Is(err, packstore.ErrChunkOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, packstore.ErrProviderNotFound), errors.As(err, &missing):
		return http.StatusFailedDependency
	default:
		return http.StatusBadGateway
	}
}
