package main

import "github.com/mickamy/ormrest/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
