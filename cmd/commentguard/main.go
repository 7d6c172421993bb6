// Command commentguard decides what happens to submitted comments.
package main

import "github.com/commentguard/commentguard/internal/cli"

func main() {
	cli.Execute()
}
