package main

/*------------------------------------------------------------------
 *
 * Purpose:	Small command-line helper for the filter mask's dual
 *		textual grammar: convert a readable range expression to its
 *		raw hex-nibble form and back.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/fa-archiver/fa-archiver/fa"
)

func main() {
	entryCount := pflag.IntP("entries", "n", 256, "Number of device ids (fa_entry_count).")
	toRaw := pflag.BoolP("raw", "r", false, "Print the raw hex-nibble form instead of the readable range form.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fa-mask [options] <mask-expression>\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help || pflag.NArg() != 1 {
		pflag.Usage()
		if *help {
			return
		}
		os.Exit(1)
	}

	mask, err := fa.ParseMask(pflag.Arg(0), *entryCount)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fa-mask:", err)
		os.Exit(1)
	}

	if *toRaw {
		fmt.Println(mask.FormatRaw(*entryCount))
		return
	}
	out, err := mask.Format(*entryCount, 4096)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fa-mask:", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
