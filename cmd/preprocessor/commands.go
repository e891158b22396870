// cmd/preprocessor/commands.go

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rgehrsitz/rexchain/internal/logging"
	"rgehrsitz/rexchain/internal/preprocessor"
)

var errInvalid = errors.New("one or more rule documents are invalid")

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "rex-preprocessor",
		Short:         "Validate and analyze rule documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logging.Setup(logLevel, "console", cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	root.AddCommand(newValidateCmd())
	return root
}

type fileReport struct {
	Path     string                 `json:"path"`
	Valid    bool                   `json:"valid"`
	Error    string                 `json:"error,omitempty"`
	Removed  int                    `json:"removed_assumptions,omitempty"`
	Analysis *preprocessor.Analysis `json:"analysis,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		format string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Parse, validate and analyze rule documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f preprocessor.Format
			if format != "" {
				var err error
				if f, err = preprocessor.ParseFormat(format); err != nil {
					return err
				}
			}

			reports := make([]fileReport, 0, len(args))
			failed := false
			for _, path := range args {
				r := validateFile(path, f)
				failed = failed || !r.Valid
				reports = append(reports, r)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return err
				}
			} else {
				printReports(out, reports)
			}
			if failed {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "document format (json, yaml, xml); detected from the extension when empty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func validateFile(path string, format preprocessor.Format) fileReport {
	rs, err := preprocessor.LoadRuleSet(path, format, nil)
	if err != nil {
		return fileReport{Path: path, Error: err.Error()}
	}
	removed := preprocessor.Optimize(rs)
	analysis, err := preprocessor.Analyze(rs)
	if err != nil {
		return fileReport{Path: path, Error: err.Error()}
	}
	return fileReport{Path: path, Valid: true, Removed: removed, Analysis: analysis}
}

func printReports(w io.Writer, reports []fileReport) {
	for _, r := range reports {
		if !r.Valid {
			fmt.Fprintf(w, "%s: INVALID: %s\n", r.Path, r.Error)
			continue
		}
		a := r.Analysis
		fmt.Fprintf(w, "%s: ok (%s, %d rules)\n", r.Path, a.RuleSet, len(a.Rules))
		for _, info := range a.Rules {
			state := ""
			if !info.Enabled {
				state = " [disabled]"
			}
			fmt.Fprintf(w, "  %s%s: consumes %v, produces %v\n", info.Name, state, info.Consumed, info.Produced)
		}
		if r.Removed > 0 {
			fmt.Fprintf(w, "  removed %d repeated assumptions\n", r.Removed)
		}
		for _, group := range a.Duplicates {
			fmt.Fprintf(w, "  warning: rules %v share identical assumptions\n", group)
		}
	}
}
