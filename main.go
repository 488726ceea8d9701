package main

import "github.com/devin-analytics/devin-stats/cmd"

func main() {
	cmd.Execute()
}
