package main

import "github.com/pfrederiksen/kebiao-ics/internal/cli"

func main() {
	cli.Execute()
}
