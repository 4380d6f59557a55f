package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/iksnae/cursor-chat-browser/internal/config"
	"github.com/iksnae/cursor-chat-browser/internal/export"
)

// configFor applies the per-request workspacePath override.
func (s *Server) configFor(r *http.Request) *config.Config {
	if p := strings.TrimSpace(r.URL.Query().Get("workspacePath")); p != "" {
		return s.cfg.WithWorkspacePath(p)
	}
	return s.cfg
}

// openGlobal opens the global store for one request.
func (s *Server) openGlobal(r *http.Request) (*internal.RecordStore, error) {
	return internal.OpenRecordStore(r.Context(), s.configFor(r).GlobalDBPath())
}

func queryInt(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func queryBool(q url.Values, name string) (bool, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, v)
	}
	return b, nil
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := internal.ListWorkspaces(r.Context(), s.configFor(r).WorkspacePath)
	if err != nil {
		writeError(w, err)
		return
	}
	if workspaces == nil {
		workspaces = []internal.WorkspaceInfo{}
	}
	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	info, err := internal.GetWorkspace(r.Context(), s.configFor(r).WorkspacePath, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleWorkspaceTabs(w http.ResponseWriter, r *http.Request) {
	cfg := s.configFor(r)
	data, err := internal.LoadWorkspaceData(r.Context(), cfg.WorkspacePath, r.PathValue("id"), cfg.GlobalDBPath())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleComposers(w http.ResponseWriter, r *http.Request) {
	composers, err := internal.ListComposers(r.Context(), s.configFor(r).WorkspacePath)
	if err != nil {
		writeError(w, err)
		return
	}
	if composers == nil {
		composers = []internal.WorkspaceComposer{}
	}
	writeJSON(w, http.StatusOK, composers)
}

type transcriptResp struct {
	*internal.Transcript
	Workspace *internal.Attribution `json:"workspace,omitempty"`
}

func (s *Server) handleComposer(w http.ResponseWriter, r *http.Request) {
	s.writeTranscript(w, r, internal.KindComposer, r.PathValue("id"))
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	s.writeTranscript(w, r, internal.KindConversation, r.PathValue("id"))
}

func (s *Server) writeTranscript(w http.ResponseWriter, r *http.Request, kind, id string) {
	ctx := r.Context()
	cfg := s.configFor(r)
	src := internal.Sources{WorkspaceRoot: cfg.WorkspacePath, GlobalDB: cfg.GlobalDBPath()}

	t, err := internal.LoadTranscript(ctx, src, internal.TranscriptRef{Kind: kind, ID: id}, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := transcriptResp{Transcript: t}
	if store, err := s.openGlobal(r); err == nil {
		if a, err := internal.AttributeConversations(ctx, cfg.WorkspacePath, store); err == nil {
			attr := a.Attribute(id)
			resp.Workspace = &attr
			t.WorkspaceID, t.WorkspaceFolder = attr.WorkspaceID, attr.Folder
		}
		store.Close()
	}
	writeJSON(w, http.StatusOK, resp)
}

type conversationsResp struct {
	Conversations []internal.ConversationSummary `json:"conversations"`
	ParseStats    internal.ParseStats            `json:"parseStats"`
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := s.configFor(r)
	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	history, err := internal.LoadHistory(ctx, store, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := history.Summaries(cfg.ScoreStrategy())
	if a, err := internal.AttributeConversations(ctx, cfg.WorkspacePath, store); err == nil {
		for i := range summaries {
			attr := a.Attribute(summaries[i].ID)
			summaries[i].Workspace = &attr
		}
	} else {
		internal.LogDebug("attribution unavailable: %v", err)
	}
	writeJSON(w, http.StatusOK, conversationsResp{Conversations: summaries, ParseStats: history.Stats})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		badRequest(w, errors.New("missing q"))
		return
	}
	results, err := internal.Search(r.Context(), s.configFor(r).WorkspacePath, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := internal.Logs(r.Context(), s.configFor(r).WorkspacePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

type activeResp struct {
	ConversationID string                `json:"conversationId"`
	Title          string                `json:"title"`
	Records        []internal.RecordView `json:"records"`
	Summary        internal.Summary      `json:"summary"`
	Workspace      *internal.Attribution `json:"workspace,omitempty"`
	Error          string                `json:"error,omitempty"`
}

func (s *Server) activeResponse(r *http.Request, store *internal.RecordStore, res *internal.ActiveResult, level internal.MetadataLevel) activeResp {
	resp := activeResp{
		ConversationID: res.ConversationID,
		Title:          res.Title,
		Records:        internal.NewRecordViews(res.Records, level),
		Summary:        res.Summary,
	}
	if res.ConversationID != "" {
		if a, err := internal.AttributeConversations(r.Context(), s.configFor(r).WorkspacePath, store); err == nil {
			attr := a.Attribute(res.ConversationID)
			resp.Workspace = &attr
		}
	}
	return resp
}

func (s *Server) handleActiveChat(w http.ResponseWriter, r *http.Request) {
	cfg := s.configFor(r)
	level, err := internal.ParseMetadataLevel(r.URL.Query().Get("metadataLevel"))
	if err != nil {
		badRequest(w, err)
		return
	}
	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	res, err := internal.FindActiveChat(r.Context(), store, internal.ActiveOptions{
		Window:   cfg.Active.Window,
		Strategy: cfg.ScoreStrategy(),
	}, s.now())
	s.writeActive(w, r, store, res, err, level)
}

func (s *Server) handleRecentMessages(w http.ResponseWriter, r *http.Request) {
	cfg := s.configFor(r)
	q := r.URL.Query()

	limit, err := queryInt(q, "limit")
	if err != nil {
		badRequest(w, err)
		return
	}
	includeEmpty, err := queryBool(q, "includeEmpty")
	if err != nil {
		badRequest(w, err)
		return
	}
	level, err := internal.ParseMetadataLevel(q.Get("metadataLevel"))
	if err != nil {
		badRequest(w, err)
		return
	}
	format := q.Get("format")
	if format != "" && format != "json" && format != "text" {
		badRequest(w, fmt.Errorf("unknown format %q (want json or text)", format))
		return
	}

	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	res, err := internal.RecentMessages(r.Context(), store, internal.RecentOptions{
		Limit:        cfg.Limit(limit),
		Since:        q.Get("since"),
		IncludeEmpty: includeEmpty,
		Strategy:     cfg.ScoreStrategy(),
	}, s.now())
	if format == "text" && err == nil {
		writeText(w, http.StatusOK, internal.RenderText(res.Records, level))
		return
	}
	s.writeActive(w, r, store, res, err, level)
}

// writeActive answers an active conversation lookup. No active conversation
// is a 404 that still carries an empty record list.
func (s *Server) writeActive(w http.ResponseWriter, r *http.Request, store *internal.RecordStore, res *internal.ActiveResult, err error, level internal.MetadataLevel) {
	switch {
	case errors.Is(err, internal.ErrNoActiveConversation):
		resp := s.activeResponse(r, store, res, level)
		resp.Error = err.Error()
		writeJSON(w, http.StatusNotFound, resp)
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusOK, s.activeResponse(r, store, res, level))
	}
}

func feedOptions(q url.Values, filterParam string) (internal.FeedOptions, error) {
	limit, err := queryInt(q, "limit")
	if err != nil {
		return internal.FeedOptions{}, err
	}
	includeContent := true
	if q.Has("includeContent") {
		if includeContent, err = queryBool(q, "includeContent"); err != nil {
			return internal.FeedOptions{}, err
		}
	}
	return internal.FeedOptions{
		Limit:          min(limit, internal.MaxLimit),
		Since:          q.Get("since"),
		Filter:         q.Get(filterParam),
		Type:           q.Get("type"),
		IncludeContent: includeContent,
	}, nil
}

func (s *Server) handleCodeBlocks(w http.ResponseWriter, r *http.Request) {
	opts, err := feedOptions(r.URL.Query(), "language")
	if err != nil {
		badRequest(w, err)
		return
	}
	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	feed, err := internal.CodeBlocks(r.Context(), store, opts, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleToolResults(w http.ResponseWriter, r *http.Request) {
	opts, err := feedOptions(r.URL.Query(), "tool")
	if err != nil {
		badRequest(w, err)
		return
	}
	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	feed, err := internal.ToolResults(r.Context(), store, opts, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleFileContext(w http.ResponseWriter, r *http.Request) {
	opts, err := feedOptions(r.URL.Query(), "filename")
	if err != nil {
		badRequest(w, err)
		return
	}
	switch opts.Type {
	case "", "all", internal.FileContextAttached, internal.FileContextGit, internal.FileContextViewed, internal.FileContextPiece:
	default:
		badRequest(w, fmt.Errorf("unknown type %q", opts.Type))
		return
	}
	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	feed, err := internal.FileContext(r.Context(), store, opts, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

type recordResp struct {
	Key        string                     `json:"key"`
	RowID      int64                      `json:"rowId"`
	Raw        json.RawMessage            `json:"raw"`
	Normalized *internal.NormalizedRecord `json:"normalized,omitempty"`
	ParseError string                     `json:"parseError,omitempty"`
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		badRequest(w, errors.New("missing key"))
		return
	}
	store, err := s.openGlobal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer store.Close()

	raw, ok, err := store.GetByKey(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "record not found: " + key})
		return
	}

	resp := recordResp{Key: raw.Key, RowID: raw.RowID}
	if json.Valid([]byte(raw.Value)) {
		resp.Raw = json.RawMessage(raw.Value)
	} else {
		quoted, _ := json.Marshal(raw.Value)
		resp.Raw = quoted
	}
	if strings.HasPrefix(key, internal.BubblePrefix) {
		rec, err := internal.Normalize(raw, s.now())
		if err != nil {
			resp.ParseError = err.Error()
		} else {
			resp.Normalized = rec
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type environmentResp struct {
	internal.Environment
	WorkspacePath string `json:"workspacePath"`
	GlobalDB      string `json:"globalDb"`
}

func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	cfg := s.configFor(r)
	writeJSON(w, http.StatusOK, environmentResp{
		Environment:   internal.DetectEnvironment(r.Context()),
		WorkspacePath: cfg.WorkspacePath,
		GlobalDB:      cfg.GlobalDBPath(),
	})
}

type validatePathReq struct {
	Path string `json:"path"`
}

type validatePathResp struct {
	Valid          bool   `json:"valid"`
	Path           string `json:"path"`
	WorkspaceCount int    `json:"workspaceCount"`
	Error          string `json:"error,omitempty"`
}

// handleValidatePath checks a candidate workspace root. It never changes the
// server's configured root.
func (s *Server) handleValidatePath(w http.ResponseWriter, r *http.Request) {
	var req validatePathReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	path := internal.ExpandHome(strings.TrimSpace(req.Path))
	if path == "" {
		badRequest(w, errors.New("missing path"))
		return
	}

	resp := validatePathResp{Path: path}
	count, err := internal.ValidateWorkspaceRoot(path)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.WorkspaceCount = count
		resp.Valid = count > 0
		if count == 0 {
			resp.Error = "no workspaces with a state.vscdb found"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport serves a transcript as a download:
// /api/export?kind=chat|composer|conversation&id=...&workspace=...&format=md
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := s.configFor(r)

	format := q.Get("format")
	if format == "" {
		format = cfg.Export.Format
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		badRequest(w, err)
		return
	}
	ref := internal.TranscriptRef{Kind: q.Get("kind"), ID: q.Get("id"), WorkspaceID: q.Get("workspace")}
	if ref.ID == "" {
		badRequest(w, errors.New("missing id"))
		return
	}

	src := internal.Sources{WorkspaceRoot: cfg.WorkspacePath, GlobalDB: cfg.GlobalDBPath()}
	t, err := internal.LoadTranscript(r.Context(), src, ref, s.now())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(t, &buf); err != nil {
		writeError(w, &internal.ExportError{Format: format, Path: ref.ID, Err: err})
		return
	}
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(t, exporter)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
