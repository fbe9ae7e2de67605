package main

import "github.com/mvp-joe/big-brother/internal/cli"

func main() {
	cli.Execute()
}
