package main

// Serves the product row source API the grids page through.
func main() {
	startWithDig()
}
