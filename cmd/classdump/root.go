package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outputFile  string
	verbose     bool
	classPaths  []string
	output      io.Writer
	logger      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "classdump",
	Short: "Inspect JVM class files",
	Long: `classdump parses compiled Java .class files and prints their
constant pool, fields, methods, bytecode, and control-flow graph.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}

		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			config := zap.NewProductionConfig()
			config.Encoding = "console"
			config.EncoderConfig.TimeKey = ""
			logger, err = config.Build()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable development-mode logging")
	rootCmd.PersistentFlags().StringSliceVarP(&classPaths, "classpath", "c", nil, "additional classpath entries (files, directories, or jars); repeatable")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(cfgCmd)
}
