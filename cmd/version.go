package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version is the canonical release string. The default here is the fallback
// for `go run` and untagged builds. Release builds overwrite it via:
//
//	go build -ldflags "-X github.com/derickschaefer/encore/cmd.Version=v0.3.0"
var Version = "v0.2.0"

// BuildTime is optionally injected at build time alongside Version:
//
//	-ldflags "-X github.com/derickschaefer/encore/cmd.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var BuildTime = ""

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	GOOS      string `json:"goos" yaml:"goos"`
	GOARCH    string `json:"goarch" yaml:"goarch"`
	BuildTime string `json:"build_time,omitempty" yaml:"build_time,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the encore version and build information",
	Long: `Print the encore version string and build metadata.

Default output is plain text, suitable for shell scripts and pipelines.
Use --format json or --format yaml for structured output.

Examples:
  encore version
  encore version --format json | jq .version`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   Version,
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			BuildTime: BuildTime,
		}

		w := cmd.OutOrStdout()
		switch globalFlags.Format {
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(info)

		case "jsonl":
			b, err := json.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\n", b)
			return nil

		case "yaml":
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(info); err != nil {
				return err
			}
			return enc.Close()

		default:
			// Plain text, one value per line.
			fmt.Fprintf(w, "encore %s\n", info.Version)
			fmt.Fprintf(w, "go     %s\n", info.GoVersion)
			fmt.Fprintf(w, "os     %s/%s\n", info.GOOS, info.GOARCH)
			if info.BuildTime != "" {
				fmt.Fprintf(w, "built  %s\n", info.BuildTime)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
