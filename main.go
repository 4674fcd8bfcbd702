package main

import "caseflow.io/caseflow/cmd"

func main() {
	cmd.Execute()
}
