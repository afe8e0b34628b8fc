package main

// Set by ldflags at release time.
var version = "dev"

func main() {
	Execute(version)
}
