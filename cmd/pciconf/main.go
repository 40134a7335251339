package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pciconf",
	Short: "Decode PCI/PCIe configuration space dumps",
	Long: `pciconf decodes a PCI/PCIe configuration space dump into its predefined
header, legacy capability chain and extended capability chain.

Input can be a raw binary image, a plain hex string, or the output of
lspci -xxxx.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
