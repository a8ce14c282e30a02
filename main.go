package main

import "github.com/Alijeyrad/teleclinic_backend/cmd"

func main() {
	cmd.Execute()
}
