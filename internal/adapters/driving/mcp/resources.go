package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ragcore resources.
	uriScheme = "ragcore://"

	statsURI    = uriScheme + "index/stats"
	settingsURI = uriScheme + "settings"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Indexer != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         statsURI,
			Name:        "index-stats",
			Description: "Kind, metric, dimension and size of the vector index",
			MIMEType:    "application/json",
		}, s.handleStatsResource)
	}

	if s.ports.Settings != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         settingsURI,
			Name:        "settings",
			Description: "Effective configuration with secrets masked",
			MIMEType:    "application/json",
		}, s.handleSettingsResource)
	}
}

// handleStatsResource returns the index statistics.
func (s *Server) handleStatsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Indexer == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, toStatsOutput(s.ports.Indexer.Stats()))
}

// handleSettingsResource returns every setting. Secrets arrive masked
// from the settings service.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	settings, err := s.ports.Settings.List()
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}

	type settingInfo struct {
		Key     string `json:"key"`
		Value   string `json:"value"`
		Default bool   `json:"default"`
	}

	infos := make([]settingInfo, len(settings))
	for i, st := range settings {
		infos[i] = settingInfo{Key: st.Key, Value: st.Value, Default: st.Default}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
