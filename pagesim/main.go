// Command pagesim runs programs against a simulated demand-paged memory.
package main

import "github.com/sarchlab/pagesim/pagesim/cmd"

func main() {
	cmd.Execute()
}
