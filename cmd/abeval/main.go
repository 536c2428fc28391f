package main

import "github.com/emiliopalmerini/abeval/internal/cli"

func main() {
	cli.Execute()
}
