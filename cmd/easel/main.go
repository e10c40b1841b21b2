// Command easel runs editor scenarios against a browser and records their outcome.
package main

func main() {
	Execute()
}
