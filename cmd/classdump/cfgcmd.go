package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cfgMethod string

var cfgCmd = &cobra.Command{
	Use:   "cfg <class-file-or-name>",
	Short: "Print a method's control-flow graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runCfg,
}

func init() {
	cfgCmd.Flags().StringVarP(&cfgMethod, "method", "m", "", "the method to analyze (required)")
	cfgCmd.MarkFlagRequired("method")
}

func runCfg(cmd *cobra.Command, args []string) error {
	cf, err := resolveClassFile(args[0])
	if err != nil {
		return fmt.Errorf("cfg: %w", err)
	}

	for _, m := range cf.Methods {
		if m.Name != cfgMethod {
			continue
		}
		if m.Code == nil {
			return fmt.Errorf("cfg: method %q has no code", cfgMethod)
		}
		graph, err := m.Code.CFG()
		if err != nil {
			return fmt.Errorf("cfg: building graph for %q: %w", cfgMethod, err)
		}
		fmt.Fprintln(output, graph.String(m.Code))
		return nil
	}
	return fmt.Errorf("cfg: no method named %q", cfgMethod)
}
