package main

import "github.com/nextlevelbuilder/pingpal/cmd"

func main() {
	cmd.Execute()
}
