/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/mkarlsen/chorus/cmd"

func main() {
	cmd.Execute()
}
