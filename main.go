package main

import "github.com/exosmium/rtu-nodarbibas-api-sub000/cmd"

func main() {
	cmd.Execute()
}
