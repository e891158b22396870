// cmd/runtime/commands.go

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rgehrsitz/rexchain/internal/config"
	"rgehrsitz/rexchain/internal/logging"
	"rgehrsitz/rexchain/internal/preprocessor"
	"rgehrsitz/rexchain/internal/registry"
	"rgehrsitz/rexchain/pkg/rex"
)

// cliURI is the registry binding used for a rule file given on the command line.
const cliURI = "rules://cli"

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "rex-runtime",
		Short:         "Run forward-chaining rule sets over facts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the YAML configuration")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	root.AddCommand(newRunCmd(opts), newWatchCmd(opts))
	return root
}

func (o *rootOptions) load(logOut io.Writer) error {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	o.cfg = cfg
	return logging.Setup(cfg.Log.Level, cfg.Log.Format, logOut)
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var rulesPath, factsPath, format string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a rule file over a fact file and print the resulting facts as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs, err := rex.LoadRuleSet(rulesPath, format, nil, opts.cfg.MaxRules)
			if err != nil {
				return err
			}
			reg := registry.Default
			if err := reg.Register(cliURI, rs); err != nil {
				return err
			}
			defer reg.Deregister(cliURI)

			facts, err := preprocessor.LoadFacts(factsPath)
			if err != nil {
				return err
			}
			result, err := rex.Run(reg, cliURI, rex.NewVocabulary(), facts)
			if err != nil {
				return err
			}
			return writeFacts(cmd.OutOrStdout(), rs.Name, result)
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule document (json, yaml or xml)")
	cmd.Flags().StringVar(&factsPath, "facts", "", "fact document (json or yaml object of name/value pairs)")
	cmd.Flags().StringVar(&format, "format", "", "rule document format; detected from the extension when empty")
	_ = cmd.MarkFlagRequired("rules")
	_ = cmd.MarkFlagRequired("facts")
	return cmd
}

type runOutput struct {
	RuleSet string `json:"ruleset"`
	Facts   []any  `json:"facts"`
}

func writeFacts(w io.Writer, ruleSet string, facts []any) error {
	if facts == nil {
		facts = []any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runOutput{RuleSet: ruleSet, Facts: facts}); err != nil {
		return fmt.Errorf("failed to encode facts: %w", err)
	}
	return nil
}
