/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/quizrace/cmd"

func main() {
	cmd.Execute()
}
