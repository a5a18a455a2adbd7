package main

import "github.com/envino/wine-api/internal/cli"

func main() {
	cli.Execute()
}
