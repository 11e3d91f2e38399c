package main

import "github.com/LegacyCodeHQ/sapling/cmd"

func main() {
	cmd.Execute()
}
