package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegenius/internal/mcptools"
	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr, dir string
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run the analysis tools as an MCP server",
		Long: `serve-mcp exposes analyze_repository, render_diagram, query_symbols and
get_relationships over the Model Context Protocol. It serves on stdio unless
--addr is given, in which case it listens for streamable HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := repoRoot([]string{dir})
			if err != nil {
				return err
			}
			cfg, logger, err := setup(cmd, g, root)
			if err != nil {
				return err
			}

			p, err := orchestrator.NewPipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			svc := mcptools.NewCodeIntelService(p, nil)
			defer svc.Close()
			server := mcptools.NewCodeIntelMCPServer(svc)

			if addr != "" {
				logger.Info("mcp.listen", "addr", addr)
				return mcptools.RunMCPServer(cmd.Context(), server, addr)
			}
			return mcptools.RunMCPServerStdio(cmd.Context(), server)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for streamable HTTP (default: stdio)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory holding codegenius.yml")
	return cmd
}
