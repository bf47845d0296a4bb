package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rixingyike/rustpress/configs"
	"github.com/rixingyike/rustpress/internal/output"
	"github.com/rixingyike/rustpress/internal/ui"
	"github.com/rixingyike/rustpress/pkg/version"
)

const projectConfigName = ".rustpress-search.yaml"

// MCPServerConfig is one server entry in .mcp.json.
type MCPServerConfig struct {
	Type    string   `json:"type,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// MCPConfig is the root .mcp.json structure. Unknown servers are kept.
type MCPConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

func newInitCmd() *cobra.Command {
	var force bool
	var withMCP bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a project config template for the site",
		Long: `Write .rustpress-search.yaml with every setting and its default into the
site root (--dir). An existing file is kept unless --force is given.

With --mcp, also register 'rustpress-search serve' in the site's .mcp.json
so MCP clients started there pick up the search tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout(), ui.DetectNoColor())
			if err := writeProjectConfig(out, siteDir, force); err != nil {
				return err
			}
			if withMCP {
				return registerMCPServer(out, siteDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "Also add the server to .mcp.json")

	return cmd
}

func writeProjectConfig(out *output.Writer, dir string, force bool) error {
	path := filepath.Join(dir, projectConfigName)
	if _, err := os.Stat(path); err == nil && !force {
		out.Status("ℹ️ ", fmt.Sprintf("Existing %s found, skipping template", projectConfigName))
		return nil
	}

	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", projectConfigName, err)
	}
	out.Successf("Created %s", projectConfigName)
	return nil
}

func registerMCPServer(out *output.Writer, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve site dir: %w", err)
	}
	path := filepath.Join(abs, ".mcp.json")

	cfg := MCPConfig{MCPServers: map[string]json.RawMessage{}}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
		if cfg.MCPServers == nil {
			cfg.MCPServers = map[string]json.RawMessage{}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read %s: %w", path, err)
	}

	entry, err := json.Marshal(MCPServerConfig{
		Type:    "stdio",
		Command: version.Name,
		Args:    []string{"serve", "--dir", abs},
	})
	if err != nil {
		return err
	}
	cfg.MCPServers[version.Name] = entry

	data, err = json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	out.Successf("Registered %s in .mcp.json", version.Name)
	return nil
}
