package main

import "github.com/dbsmedya/zoneaudit/cmd/zoneaudit/cmd"

func main() {
	cmd.Execute()
}
