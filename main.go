package main

import "pyforge/internal/pyforge"

func main() {
	pyforge.Main()
}
