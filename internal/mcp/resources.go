package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const docURIPrefix = "rustpress://doc/"

// DocumentURI returns the resource URI for a document id.
func DocumentURI(id string) string {
	return docURIPrefix + id
}

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "document",
		URITemplate: docURIPrefix + "{id}",
		Description: "A post from the site corpus, as JSON",
		MIMEType:    "application/json",
	}, s.handleReadDocument)
}

func (s *Server) handleReadDocument(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	content, err := s.ReadResource(ctx, req.Params.URI)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: content},
		},
	}, nil
}

// ReadResource returns the JSON for a rustpress://doc/{id} URI.
func (s *Server) ReadResource(_ context.Context, uri string) (string, error) {
	id, ok := strings.CutPrefix(uri, docURIPrefix)
	if !ok || id == "" {
		return "", NewResourceNotFoundError(uri)
	}

	doc, err := s.engine.Document(id)
	if err != nil {
		return "", MapError(err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode document %s: %w", id, err)
	}
	return string(data), nil
}
