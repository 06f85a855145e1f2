//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "alpacatrans"
	mainPkg    = "./cmd/alpacatrans"
)

// Default target to run when none is specified
var Default = Build

// Build builds the alpacatrans binary
func Build() error {
	fmt.Println("Building", binaryName)
	return sh.RunV("go", "build", "-o", binaryName, mainPkg)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet on all packages
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs the binary into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", mainPkg)
}

// Clean removes the built binary and leftover sink lock files
func Clean() error {
	fmt.Println("Cleaning...")
	if err := sh.Rm(binaryName); err != nil {
		return err
	}
	locks, err := filepath.Glob(filepath.Join("data", "*.lock"))
	if err != nil {
		return err
	}
	for _, lock := range locks {
		if err := os.Remove(lock); err != nil {
			return err
		}
	}
	return nil
}
