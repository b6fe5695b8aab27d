package main

import (
	"errors"
	"fmt"
	"os"

	"ecmd/internal/cmd"
	"ecmd/internal/termstyle"
)

func main() {
	err := cmd.NewRootCmd().Execute()
	if err == nil {
		return
	}
	var code cmd.ExitCode
	if errors.As(err, &code) {
		os.Exit(int(code))
	}
	fmt.Fprintln(os.Stderr, termstyle.For(os.Stderr).Error(err))
	os.Exit(1)
}
