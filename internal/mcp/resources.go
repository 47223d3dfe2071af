package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// URIScheme prefixes RFC document resources, e.g. rfc://793.
const URIScheme = "rfc://"

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "rfc",
		URITemplate: URIScheme + "{number}",
		Description: "Full text of a downloaded RFC",
		MIMEType:    "text/plain",
	}, s.handleReadResource)
}

func (s *Server) handleReadResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	number, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	_, body, err := s.document(number)
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "text/plain", Text: body},
		},
	}, nil
}

// parseURI extracts the RFC number from rfc://<n>.
func parseURI(uri string) (int, error) {
	raw, ok := strings.CutPrefix(uri, URIScheme)
	if !ok {
		return 0, NewResourceNotFoundError(uri)
	}
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		return 0, NewInvalidParamsError(fmt.Sprintf("invalid RFC number in %q", uri))
	}
	return number, nil
}
