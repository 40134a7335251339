package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/siderolabs/go-pcidb/pkg/pcidb"
	"github.com/spf13/cobra"

	"github.com/sercanarga/pciconf"
	"github.com/sercanarga/pciconf/capability"
	"github.com/sercanarga/pciconf/extcap"
	"github.com/sercanarga/pciconf/internal/color"
	"github.com/sercanarga/pciconf/internal/hexutil"
)

var decodeNoColor bool

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a configuration space dump",
	Long: `Decodes a configuration space dump file and prints the predefined header,
the legacy capability chain and the extended capability chain.

The file may be a raw binary image (256 or 4096 bytes), a plain hex
string, or the output of lspci -xxxx.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if decodeNoColor {
			color.Disable()
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read dump: %w", err)
		}
		data, err := hexutil.ParseDump(raw)
		if err != nil {
			return fmt.Errorf("failed to parse dump: %w", err)
		}
		if len(data) < pciconf.DDROffset {
			return fmt.Errorf("dump too short: %d bytes, need at least %d", len(data), pciconf.DDROffset)
		}

		cs := pciconf.FromBytes(data)
		printHeader(cs)
		printCapabilities(cs)
		printExtended(cs)
		return nil
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeNoColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(decodeCmd)
}

func printHeader(cs *pciconf.ConfigSpace) {
	fmt.Println(color.Header("Predefined Header"))

	vendor, _ := pcidb.LookupVendor(pcidb.Vendor(cs.VendorID()))
	product, _ := pcidb.LookupProduct(pcidb.Vendor(cs.VendorID()), pcidb.Product(cs.DeviceID()))
	class, _ := pcidb.LookupClass(pcidb.Class(cs.BaseClass()))
	subclass, _ := pcidb.LookupSubclass(pcidb.Class(cs.BaseClass()), pcidb.Subclass(cs.SubClass()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Vendor:\t%04x %s\n", cs.VendorID(), vendor)
	fmt.Fprintf(w, "Device:\t%04x %s\n", cs.DeviceID(), product)
	fmt.Fprintf(w, "Class:\t%06x %s / %s\n", cs.ClassCode(), class, subclass)
	fmt.Fprintf(w, "Revision:\t%02x\n", cs.RevisionID())
	fmt.Fprintf(w, "Subsystem:\t%04x:%04x\n", cs.SubsysVendorID(), cs.SubsysDeviceID())
	fmt.Fprintf(w, "Command:\t%04x\n", cs.Command())
	fmt.Fprintf(w, "Status:\t%04x\n", cs.Status())
	fmt.Fprintf(w, "Header type:\t%02x%s\n", cs.HeaderLayout(), multiFunctionSuffix(cs))
	fmt.Fprintf(w, "Interrupt:\tline %d, pin %d\n", cs.InterruptLine(), cs.InterruptPin())
	for i := 0; i < 6; i++ {
		if v := cs.BAR(i); v != 0 {
			fmt.Fprintf(w, "BAR%d:\t%08x\n", i, v)
		}
	}
	if v := cs.ExpansionROMBase(); v != 0 {
		fmt.Fprintf(w, "Expansion ROM:\t%08x\n", v)
	}
	w.Flush()
}

func multiFunctionSuffix(cs *pciconf.ConfigSpace) string {
	if cs.IsMultiFunction() {
		return " (multi-function)"
	}
	return ""
}

func printCapabilities(cs *pciconf.ConfigSpace) {
	fmt.Println()
	fmt.Println(color.Header("Capabilities"))

	if !cs.HasCapabilities() {
		fmt.Println(color.Dim("none advertised"))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OFFSET\tID\tNAME\tDETAIL")

	n := 0
	walker := capability.NewWalker(cs)
	for walker.Scan() {
		c := walker.Capability()
		fmt.Fprintf(w, "0x%02x\t%02x\t%s\t%s\n", c.Pointer, c.ID, c.Name(), capabilityDetail(c.Kind))
		n++
	}
	w.Flush()

	if n == 0 {
		fmt.Println(color.Dim("empty chain"))
	}
}

func printExtended(cs *pciconf.ConfigSpace) {
	fmt.Println()
	fmt.Println(color.Header("Extended Capabilities"))

	if !cs.HasExtendedRegion() {
		fmt.Println(color.Dim("legacy dump, no extended region"))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OFFSET\tID\tVER\tNAME\tDETAIL")

	n := 0
	walker := extcap.NewWalker(cs)
	for walker.Scan() {
		c := walker.Capability()
		fmt.Fprintf(w, "0x%03x\t%04x\t%d\t%s\t%s\n", c.Offset, c.ID, c.Version, c.Name(), extendedDetail(c.Kind))
		n++
	}
	w.Flush()

	if err := walker.Err(); err != nil {
		fmt.Println(color.Warnf("chain truncated: %v", err))
	} else if n == 0 {
		fmt.Println(color.Dim("empty chain"))
	}
}

// capabilityDetail summarizes the decoded record in one line. Kinds without
// a useful one-liner return an empty string.
func capabilityDetail(k capability.Kind) string {
	switch v := k.(type) {
	case capability.PowerManagement:
		return fmt.Sprintf("version %d, state D%d", v.Capabilities.Version, v.Control.PowerState)
	case capability.MSI:
		return fmt.Sprintf("enable %v, %d/%d vectors, 64-bit %v",
			v.MessageControl.Enable,
			1<<v.MessageControl.MultipleMessageEnable,
			1<<v.MessageControl.MultipleMessageCapable,
			v.MessageControl.Is64Bit)
	case capability.MSIX:
		entries := int(v.MessageControl.TableSize) + 1
		return fmt.Sprintf("%d entries (%s), table BIR %d",
			entries, humanize.IBytes(uint64(entries)*16), v.Table.BIR)
	case capability.PCIExpress:
		return fmt.Sprintf("version %d, %s", v.Capabilities.Version, deviceTypeName(v.Capabilities.DeviceType))
	case capability.EnhancedAllocation:
		return fmt.Sprintf("%d entries", v.NumEntries)
	case capability.VendorSpecific:
		return fmt.Sprintf("%d data bytes", len(v.Data))
	case capability.BridgeSubsystemVendorID:
		return fmt.Sprintf("%04x:%04x", v.VendorID, v.DeviceID)
	}
	return ""
}

func extendedDetail(k extcap.Kind) string {
	switch v := k.(type) {
	case extcap.DeviceSerialNumber:
		return formatSerial(v.SerialNumber)
	case extcap.SRIOV:
		return fmt.Sprintf("%d/%d VFs enabled", v.NumVFs, v.TotalVFs)
	case extcap.VSEC:
		return fmt.Sprintf("vendor cap %04x rev %d, %d data bytes", v.VendorCapabilityID, v.Revision, len(v.Data))
	case extcap.ACS:
		return fmt.Sprintf("egress control vector %d bits", v.EgressControlVectorSize)
	case extcap.LTR:
		return fmt.Sprintf("max snoop %d (scale %d)", v.MaxSnoopLatency.Value, v.MaxSnoopLatency.Scale)
	case extcap.VirtualChannel:
		return fmt.Sprintf("%d VC resources", len(v.Resources))
	case extcap.TPHRequester:
		if len(v.STTable) > 0 {
			return fmt.Sprintf("%d steering tags", len(v.STTable))
		}
	}
	return ""
}

// formatSerial renders an IEEE EUI-64 serial number the way lspci does.
func formatSerial(sn uint64) string {
	b := make([]byte, 0, 23)
	for i := 7; i >= 0; i-- {
		if len(b) > 0 {
			b = append(b, '-')
		}
		b = append(b, fmt.Sprintf("%02x", byte(sn>>(uint(i)*8)))...)
	}
	return string(b)
}

func deviceTypeName(t uint8) string {
	switch t {
	case capability.DeviceTypeEndpoint:
		return "endpoint"
	case capability.DeviceTypeLegacyEndpoint:
		return "legacy endpoint"
	case capability.DeviceTypeRootPort:
		return "root port"
	case capability.DeviceTypeUpstreamPort:
		return "upstream port"
	case capability.DeviceTypeDownstreamPort:
		return "downstream port"
	case capability.DeviceTypePCIeToPCIBridge:
		return "PCIe to PCI bridge"
	case capability.DeviceTypePCIToPCIeBridge:
		return "PCI to PCIe bridge"
	case capability.DeviceTypeRCIntegratedEndpoint:
		return "RC integrated endpoint"
	case capability.DeviceTypeRCEventCollector:
		return "RC event collector"
	}
	return fmt.Sprintf("device type %d", t)
}
