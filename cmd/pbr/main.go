// pbr is the PBRLang command line: it converts .pbr programs to Rust, runs
// and tests them, and manages project dependencies.
package main

import (
	"errors"
	"fmt"
	"os"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		os.Exit(1)
	}
}
