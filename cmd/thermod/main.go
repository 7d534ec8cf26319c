// Command thermod runs the temperature monitoring backend.
package main

func main() {
	Execute()
}
