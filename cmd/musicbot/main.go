package main

import "github.com/EgorLis/musicbot/internal/cli"

func main() {
	cli.Execute()
}
