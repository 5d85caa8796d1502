package main

import (
	"fmt"

	"github.com/evanreyes/classdump/pkg/classfile"
	"github.com/spf13/cobra"
)

var disasmMethod string

var disasmCmd = &cobra.Command{
	Use:   "disasm <class-file-or-name>",
	Short: "Disassemble a class's bytecode into mnemonic form",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	disasmCmd.Flags().StringVarP(&disasmMethod, "method", "m", "", "disassemble only the method with this name")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	cf, err := resolveClassFile(args[0])
	if err != nil {
		return fmt.Errorf("disasm: %w", err)
	}

	found := false
	for _, m := range cf.Methods {
		if disasmMethod != "" && m.Name != disasmMethod {
			continue
		}
		found = true
		if err := disasmMethod1(m); err != nil {
			return fmt.Errorf("disasm: method %s: %w", m.Name, err)
		}
	}
	if disasmMethod != "" && !found {
		return fmt.Errorf("disasm: no method named %q", disasmMethod)
	}
	return nil
}

func disasmMethod1(m *classfile.MethodInfo) error {
	fmt.Fprintf(output, "%s %s:\n", m.Name, m.RawDescriptor)
	if m.Code == nil {
		fmt.Fprintln(output, "\t(no code)")
		return nil
	}

	it := m.Code.Iterator()
	for !it.Eof() {
		index, err := it.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "\t%d: %s\n", index, it.String(index))
	}
	return nil
}
