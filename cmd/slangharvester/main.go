// Package main provides the entry point for the SlangHarvester CLI.
//
// Usage:
//
//	slangharvester serve
//	slangharvester harvest
//	slangharvester lookup <word>
//	slangharvester dedupe
//
// See --help for all available options.
package main

func main() {
	Execute()
}
