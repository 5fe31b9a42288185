// Command xlsxpkg inspects and round-trips .xlsx packages.
//
//	xlsxpkg parts Book1.xlsx --where 'Parsed && Size > 1000'
//	xlsxpkg rels Book1.xlsx
//	xlsxpkg sheets Book1.xlsx
//	xlsxpkg roundtrip Book1.xlsx Book1-copy.xlsx
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
