// Command purchase manages the local purchase database.
package main

import "github.com/mesh-intelligence/purchase/internal/cli"

func main() {
	cli.Execute()
}
