package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/search"
	"github.com/hile/rtfm/pkg/version"
)

// DefaultCacheSize is the number of decoded documents kept in memory.
const DefaultCacheSize = 64

// Index is the part of rfcindex.Index the server uses.
type Index interface {
	Find(ctx context.Context, q search.Query) ([]rfcindex.Match, error)
	GetByNumber(number int) (rfcindex.Record, error)
	Read(number int) (string, error)
	Status(ctx context.Context) (rfcindex.StatusInfo, error)
}

// Options configures NewServer.
type Options struct {
	// CacheSize defaults to DefaultCacheSize.
	CacheSize int
	Logger    *slog.Logger
}

// Server exposes an RFC mirror to MCP clients. It is read-only: updates are
// left to 'rtfm update'.
type Server struct {
	mcp    *mcp.Server
	index  Index
	docs   *lru.Cache[int, string]
	logger *slog.Logger

	// rfcindex.Index is not safe for concurrent use.
	mu sync.Mutex
}

// NewServer creates a server over index.
func NewServer(index Index, opts Options) (*Server, error) {
	if index == nil {
		return nil, errors.New("rfc index is required")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	docs, err := lru.New[int, string](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		index:  index,
		docs:   docs,
		logger: opts.Logger,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "rtfm",
		Version: version.Version,
	}, nil)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve runs the server on stdio until ctx is canceled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSearch,
		Description: "Search the local RFC mirror. All terms must match. Titles are searched by default; set body to also search document text. Returns RFC numbers, titles and status.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolShow,
		Description: "Return the full text of an RFC by number, with its index metadata. Only downloaded documents are available.",
	}, s.handleShow)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolStatus,
		Description: "Report how many RFCs are known, downloaded and searchable, and when the mirror was last updated.",
	}, s.handleStatus)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 3))
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if len(input.Terms) == 0 {
		return nil, SearchOutput{}, NewInvalidParamsError("terms must contain at least one keyword")
	}

	start := time.Now()
	requestID := generateRequestID()

	s.mu.Lock()
	matches, err := s.index.Find(ctx, search.Query{
		Terms: input.Terms,
		Body:  input.Body,
		Limit: clampLimit(input.Limit),
	})
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("mcp_search",
		slog.String("request_id", requestID),
		slog.Any("terms", input.Terms),
		slog.Bool("body", input.Body),
		slog.Int("result_count", len(matches)),
		slog.Duration("duration", time.Since(start)))

	out := SearchOutput{Results: make([]SearchResult, 0, len(matches))}
	for _, m := range matches {
		out.Results = append(out.Results, toSearchResult(m))
	}
	return textResult(FormatSearchResults(input.Terms, matches)), out, nil
}

func (s *Server) handleShow(ctx context.Context, _ *mcp.CallToolRequest, input ShowInput) (
	*mcp.CallToolResult,
	ShowOutput,
	error,
) {
	rec, body, err := s.document(input.Number)
	if err != nil {
		return nil, ShowOutput{}, MapError(err)
	}

	out := ShowOutput{
		Number:    rec.Number,
		Title:     rec.Title,
		Published: published(rec.Date),
		Flags:     rec.Flags,
		Bytes:     len(body),
	}
	return textResult(body), out, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	s.mu.Lock()
	info, err := s.index.Status(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}

	out := StatusOutput{
		CacheDir:   info.CacheDir,
		Backend:    string(info.Backend),
		Known:      info.Known,
		Downloaded: info.Downloaded,
		Searchable: info.Searchable,
		Latest:     info.Latest,
	}
	if !info.LastSync.IsZero() {
		out.LastSync = info.LastSync.UTC().Format(time.RFC3339)
	}
	return textResult(FormatStatus(info)), out, nil
}

// document returns the record and decoded body of an RFC, using the cache.
func (s *Server) document(number int) (rfcindex.Record, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.index.GetByNumber(number)
	if err != nil {
		return rfcindex.Record{}, "", err
	}
	if body, ok := s.docs.Get(number); ok {
		return rec, body, nil
	}

	body, err := s.index.Read(number)
	if err != nil {
		return rfcindex.Record{}, "", err
	}
	s.docs.Add(number, body)
	return rec, body, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// generateRequestID creates a short ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
