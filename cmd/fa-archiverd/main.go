package main

/*------------------------------------------------------------------
 *
 * Purpose:	Archiver daemon: creates or opens an FA archive, optionally
 *		attaches a live sniffer device, and runs until interrupted.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/fa-archiver/fa-archiver/fa"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Archive configuration YAML file (required when creating a new archive).")
	path := pflag.StringP("path", "p", "", "Archive file path. Overrides the config file's path when set.")
	create := pflag.BoolP("create", "n", false, "Create a new archive at path before opening it.")
	writeBufferDepth := pflag.IntP("write-buffer", "w", 4, "Number of major blocks the writer may queue before the sniffer starts dropping.")
	snifferDevice := pflag.StringP("sniffer", "s", "", "Sniffer device path. Empty disables live acquisition (read-only archive).")
	boostPriority := pflag.BoolP("boost-priority", "b", false, "Pin the sniffer goroutine to its OS thread.")
	announce := pflag.BoolP("announce", "a", false, "Announce this archive's service via DNS-SD.")
	announcePort := pflag.IntP("announce-port", "P", 8888, "Port to announce via DNS-SD.")
	debug := pflag.BoolP("debug", "d", false, "Enable debug-level logging.")
	status := pflag.BoolP("status", "t", false, "Print the archive's disk status and gap log, then exit.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fa-archiverd [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	fa.ConfigureLogging(*debug)

	var cfg *fa.ArchiveConfig
	if *configFile != "" {
		var err error
		cfg, err = fa.LoadArchiveConfig(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fa-archiverd:", err)
			os.Exit(1)
		}
	} else {
		cfg = &fa.ArchiveConfig{}
	}
	if *path != "" {
		cfg.Path = *path
	}
	if cfg.Path == "" {
		fmt.Fprintln(os.Stderr, "fa-archiverd: no archive path given (-path or config file's path:)")
		os.Exit(1)
	}

	var archive *fa.Archive
	var err error
	if *create {
		geometry, gerr := cfg.Geometry()
		if gerr != nil {
			fmt.Fprintln(os.Stderr, "fa-archiverd:", gerr)
			os.Exit(1)
		}
		archive, err = fa.CreateArchive(cfg.Path, geometry, *writeBufferDepth)
	} else {
		archive, err = fa.OpenArchive(cfg.Path, *writeBufferDepth)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fa-archiverd:", err)
		os.Exit(1)
	}

	if *status {
		printDiskStatus(archive)
		if err := archive.TerminateDiskWriter(); err != nil {
			fmt.Fprintln(os.Stderr, "fa-archiverd: shutdown:", err)
			os.Exit(1)
		}
		return
	}

	if *snifferDevice != "" {
		device, derr := fa.OpenDeviceSniffer(*snifferDevice, fa.NullRawDevice{})
		if derr != nil {
			fmt.Fprintln(os.Stderr, "fa-archiverd:", derr)
			os.Exit(1)
		}
		archive.ConfigureSniffer(device)
		if serr := archive.StartSniffer(*boostPriority); serr != nil {
			fmt.Fprintln(os.Stderr, "fa-archiverd:", serr)
			os.Exit(1)
		}
	}

	if *announce {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		name := cfg.DiscoveryName
		port := *announcePort
		if cfg.DiscoveryPort != 0 {
			port = cfg.DiscoveryPort
		}
		if aerr := fa.Announce(ctx, name, port); aerr != nil {
			fmt.Fprintln(os.Stderr, "fa-archiverd: announce:", aerr)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	archive.TerminateSniffer()
	if err := archive.TerminateDiskWriter(); err != nil {
		fmt.Fprintln(os.Stderr, "fa-archiverd: shutdown:", err)
		os.Exit(1)
	}
}

// printDiskStatus renders the header's disk status and gap log to stdout,
// the CLI analog of disk_writer.c's status-reporting tools.
func printDiskStatus(archive *fa.Archive) {
	h := archive.Header()
	fmt.Printf("disk_status:   %d\n", h.DiskStatus)
	fmt.Printf("write_buffer:  %d\n", h.WriteBuffer)
	fmt.Printf("write_backlog: %d\n", h.WriteBacklog)
	fmt.Printf("block_count:   %d\n", h.BlockCount)
	for i := 0; i < h.BlockCount; i++ {
		b := h.Blocks[i]
		span, err := fa.FormatBlockRecord(b)
		if err != nil {
			fmt.Printf("  [%d] (unformattable: %v)\n", i, err)
			continue
		}
		fmt.Printf("  [%d] %s  offsets [%d, %d)\n", i, span, b.StartOffset, b.StopOffset)
	}
}
