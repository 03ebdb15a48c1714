package main

import "github.com/Suryadikhit/NutriLens/cmd/nutrilens"

func main() {
	nutrilens.Execute()
}
