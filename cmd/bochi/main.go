package main

import "github.com/devicelab-dev/bochi/pkg/cli"

func main() {
	cli.Execute()
}
