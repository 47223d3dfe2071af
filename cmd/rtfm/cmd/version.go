package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hile/rtfm/pkg/version"
)

// mirrorInfo is what this build talks to, as configured.
type mirrorInfo struct {
	IndexURL    string `json:"index_url"`
	DocumentURL string `json:"document_url"`
	UserAgent   string `json:"user_agent"`
	Backend     string `json:"backend"`
	CacheDir    string `json:"cache_dir"`
}

type versionReport struct {
	version.BuildInfo
	Mirror mirrorInfo `json:"mirror"`
}

func currentMirror() mirrorInfo {
	client := newRemote()
	return mirrorInfo{
		IndexURL:    client.IndexURL(),
		DocumentURL: client.DocumentURL(793),
		UserAgent:   client.UserAgent(),
		Backend:     cfg.Search.Backend,
		CacheDir:    cfg.ResolvedCacheDir(),
	}
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool
	var shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the build version along with the RFC mirror, User-Agent and cache
this installation is configured to use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if shortOutput {
				_, err := fmt.Fprintln(out, version.Short())
				return err
			}

			report := versionReport{BuildInfo: version.GetInfo(), Mirror: currentMirror()}
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			m := report.Mirror
			_, err := fmt.Fprintf(out, "%s\n  Index:      %s\n  Documents:  %s\n  User-Agent: %s\n  Backend:    %s\n  Cache:      %s\n",
				version.String(), m.IndexURL, m.DocumentURL, m.UserAgent, m.Backend, m.CacheDir)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version and mirror info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
