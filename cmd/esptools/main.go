// Command esptools runs the Espressif tools bundled into this binary.
//
//	esptools <command> [<args>]
//
// The command selects a tool by keyword (tool, flash, secure, efuse,
// idfnvs); every remaining argument is passed to it unchanged.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, newApp(os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}
