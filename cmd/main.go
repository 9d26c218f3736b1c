package main

import (
	api "conduit"
)

func main() {
	api.Run()
}
