package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/uniast/config"
	"github.com/dhamidi/uniast/syntax"
	"github.com/dhamidi/uniast/workspace"
)

func newScanCmd() *cobra.Command {
	var jobs int
	var timeout time.Duration
	var configPath string

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Parse every source file under a directory and report syntax errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("stat %s: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			cfg, err := scanConfig(cmd, configPath, jobs, timeout)
			if err != nil {
				return err
			}

			ws := workspace.New(dir, workspace.WithJobs(cfg.Jobs), workspace.WithTimeout(cfg.Timeout))
			began := time.Now()
			if err := ws.ScanAll(cmd.Context()); err != nil {
				return err
			}

			var withErrors, failed int
			docs := ws.Files()
			for _, doc := range docs {
				switch {
				case doc.Err != nil:
					failed++
					fmt.Printf("%s %s: %v\n", errorColor.Sprint("[FAIL]"), doc.Path, doc.Err)
				case doc.Program.HasError:
					withErrors++
					fmt.Printf("%s %s (%d error nodes)\n", warnColor.Sprint("[ERR] "), doc.Path, len(syntax.ErrorNodes(doc.Program.Root)))
				default:
					fmt.Printf("%s %s (%d nodes)\n", okColor.Sprint("[OK]  "), doc.Path, doc.Program.Root.Count())
				}
			}

			fmt.Printf("\n=== SCAN COMPLETE ===\n")
			fmt.Printf("Files: %d\n", len(docs))
			fmt.Printf("With syntax errors: %d\n", withErrors)
			fmt.Printf("Failed: %d\n", failed)
			fmt.Printf("Elapsed: %s\n", time.Since(began).Round(time.Millisecond))

			if failed > 0 {
				return fmt.Errorf("%d files could not be parsed", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files parsed at once (default GOMAXPROCS)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "timeout per file")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file; --jobs and --timeout override its [parse] section")

	return cmd
}

// scanConfig merges the [parse] section of the config file with the flags
// given on the command line.
func scanConfig(cmd *cobra.Command, configPath string, jobs int, timeout time.Duration) (config.Parse, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Parse{}, err
		}
		cfg = loaded
	}
	if configPath == "" || cmd.Flags().Changed("jobs") {
		cfg.Parse.Jobs = jobs
	}
	if configPath == "" || cmd.Flags().Changed("timeout") {
		cfg.Parse.Timeout = timeout
	}
	return cfg.Parse, nil
}
