// The main package for the firmtrack executable.
package main

import (
	"github.com/galaxyhub/firmtrack/cmd"
)

func main() {
	cmd.Execute()
}
