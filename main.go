package main

import "milepost/internal/cli"

func main() {
	cli.Execute()
}
