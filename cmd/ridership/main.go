package main

import "github.com/szooyang/ai-project01/internal/cli"

func main() {
	cli.Execute()
}
