package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/evanreyes/classdump/pkg/classfile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <class-file-or-name>",
	Short: "Print a class file's header, constant pool, fields, and methods",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	cf, err := resolveClassFile(args[0])
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	if verbose {
		logger.Info("parsed class file",
			zap.String("name", cf.ThisName),
			zap.Int("constant_pool_size", cf.ConstantPool.Count()),
			zap.Int("fields", len(cf.Fields)),
			zap.Int("methods", len(cf.Methods)),
			zap.String("total_bytecode_size", humanize.Bytes(uint64(totalBytecodeSize(cf)))),
		)
	}

	fmt.Fprintln(output, cf.String())
	return nil
}

func totalBytecodeSize(cf *classfile.ClassFile) int {
	total := 0
	for _, m := range cf.Methods {
		if m.Code != nil {
			total += len(m.Code.Code)
		}
	}
	return total
}
