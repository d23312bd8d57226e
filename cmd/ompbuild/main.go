// Command ompbuild builds Oh My Posh prompt configurations from modular YAML
// fragments.
package main

import "github.com/papapumpkin/ompbuild/cmd"

func main() {
	cmd.Execute()
}
