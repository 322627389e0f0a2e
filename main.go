package main

import (
	"github.com/ColonelBlimp/morsecodec/cmd"
	"github.com/ColonelBlimp/morsecodec/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
