package main

import "github.com/brightcard/walletpass/internal/cli"

func main() {
	cli.Execute()
}
