package main

import "group-actions-backend/cmd"

func main() {
	cmd.Run()
}
