package main

import "github.com/Plantigo/plantigo-backend/cmd"

func main() {
	cmd.Execute()
}
