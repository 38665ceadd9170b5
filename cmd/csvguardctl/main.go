package main

import "os"

func main() {
	app := &App{}
	if err := newRootCmd(app).Execute(); err != nil {
		os.Exit(1)
	}
}
