package main

import "github.com/erp/bulkship/internal/cli"

func main() {
	cli.Execute()
}
