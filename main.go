package main

import points "github.com/saadjs/points-cli/cmd/points"

func main() {
	points.Execute()
}
