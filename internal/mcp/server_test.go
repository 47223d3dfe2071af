package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hile/rtfm/internal/catalog"
	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/search"
)

// fakeIndex implements Index for testing.
type fakeIndex struct {
	records map[int]rfcindex.Record
	bodies  map[int]string
	reads   int
	query   search.Query
	matches []rfcindex.Match
	status  rfcindex.StatusInfo
}

func newFakeIndex() *fakeIndex {
	tcp := rfcindex.Record{
		Entry: catalog.Entry{
			Number: 793,
			Title:  "Transmission Control Protocol. J. Postel.",
			Date:   time.Date(1981, time.September, 1, 0, 0, 0, 0, time.UTC),
			Flags:  map[string]string{"Status": "INTERNET STANDARD"},
		},
		Exists: true,
	}
	ip := rfcindex.Record{Entry: catalog.Entry{Number: 791, Title: "Internet Protocol. J. Postel."}}
	return &fakeIndex{
		records: map[int]rfcindex.Record{793: tcp, 791: ip},
		bodies:  map[int]string{793: "TRANSMISSION CONTROL PROTOCOL"},
		matches: []rfcindex.Match{{Record: tcp, Score: 1.5, Field: search.FieldTitle}},
	}
}

func (f *fakeIndex) Find(_ context.Context, q search.Query) ([]rfcindex.Match, error) {
	f.query = q
	return f.matches, nil
}

func (f *fakeIndex) GetByNumber(n int) (rfcindex.Record, error) {
	if n < 1 {
		return rfcindex.Record{}, rerrors.InvalidNumberError("0")
	}
	rec, ok := f.records[n]
	if !ok {
		return rfcindex.Record{}, rerrors.NotFoundError(n)
	}
	return rec, nil
}

func (f *fakeIndex) Read(n int) (string, error) {
	f.reads++
	body, ok := f.bodies[n]
	if !ok {
		return "", rerrors.New(rerrors.ErrCodeFileNotFound, "RFC not downloaded", nil)
	}
	return body, nil
}

func (f *fakeIndex) Status(context.Context) (rfcindex.StatusInfo, error) {
	return f.status, nil
}

func newTestServer(t *testing.T, idx Index) *Server {
	t.Helper()
	s, err := NewServer(idx, Options{CacheSize: 2})
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresIndex(t *testing.T) {
	_, err := NewServer(nil, Options{})
	assert.Error(t, err)
}

func TestHandleSearch_PassesQueryAndFormats(t *testing.T) {
	// Given: a server over an index with one match
	idx := newFakeIndex()
	s := newTestServer(t, idx)

	// When: searching with body and no limit
	res, out, err := s.handleSearch(context.Background(), nil, SearchInput{Terms: []string{"tcp"}, Body: true})

	// Then: the default limit applies and the hit is converted
	require.NoError(t, err)
	assert.Equal(t, search.Query{Terms: []string{"tcp"}, Body: true, Limit: defaultLimit}, idx.query)
	require.Len(t, out.Results, 1)
	assert.Equal(t, SearchResult{
		Number:     793,
		Title:      "Transmission Control Protocol. J. Postel.",
		Published:  "September 1981",
		Status:     "INTERNET STANDARD",
		Score:      1.5,
		Field:      "title",
		Downloaded: true,
	}, out.Results[0])

	require.Len(t, res.Content, 1)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "**RFC 793**")
}

func TestHandleSearch_EmptyTerms(t *testing.T) {
	s := newTestServer(t, newFakeIndex())

	_, _, err := s.handleSearch(context.Background(), nil, SearchInput{})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleShow_CachesBody(t *testing.T) {
	// Given: a downloaded RFC
	idx := newFakeIndex()
	s := newTestServer(t, idx)

	// When: showing it twice
	res, out, err := s.handleShow(context.Background(), nil, ShowInput{Number: 793})
	require.NoError(t, err)
	_, _, err = s.handleShow(context.Background(), nil, ShowInput{Number: 793})
	require.NoError(t, err)

	// Then: the body is returned and read from disk once
	assert.Equal(t, "TRANSMISSION CONTROL PROTOCOL", res.Content[0].(*mcp.TextContent).Text)
	assert.Equal(t, 793, out.Number)
	assert.Equal(t, len("TRANSMISSION CONTROL PROTOCOL"), out.Bytes)
	assert.Equal(t, 1, idx.reads)
}

func TestHandleShow_Errors(t *testing.T) {
	tests := []struct {
		name   string
		number int
		code   int
	}{
		{"unknown number", 9999, ErrCodeRFCNotFound},
		{"not downloaded", 791, ErrCodeNotDownloaded},
		{"invalid number", 0, ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, newFakeIndex())

			_, _, err := s.handleShow(context.Background(), nil, ShowInput{Number: tt.number})

			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.code, mcpErr.Code)
		})
	}
}

func TestHandleStatus(t *testing.T) {
	idx := newFakeIndex()
	idx.status = rfcindex.StatusInfo{
		CacheDir: "/c", Backend: search.BackendBleve,
		Known: 2, Downloaded: 1, Searchable: 1, Latest: 793,
		LastSync: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s := newTestServer(t, idx)

	res, out, err := s.handleStatus(context.Background(), nil, StatusInput{})

	require.NoError(t, err)
	assert.Equal(t, StatusOutput{
		CacheDir: "/c", Backend: "bleve",
		Known: 2, Downloaded: 1, Searchable: 1, Latest: 793,
		LastSync: "2026-01-02T03:04:05Z",
	}, out)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "Known RFCs: 2 (latest RFC 793)")
}

func TestParseURI(t *testing.T) {
	n, err := parseURI("rfc://793")
	require.NoError(t, err)
	assert.Equal(t, 793, n)

	_, err = parseURI("file:///etc/passwd")
	assert.Error(t, err)

	_, err = parseURI("rfc://abc")
	assert.Error(t, err)

	_, err = parseURI("rfc://0")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultLimit, clampLimit(0))
	assert.Equal(t, defaultLimit, clampLimit(-3))
	assert.Equal(t, 5, clampLimit(5))
	assert.Equal(t, maxLimit, clampLimit(10000))
}
