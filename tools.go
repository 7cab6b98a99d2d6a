//go:build tools
// +build tools

// This file imports packages that are used during the development process
// but not otherwise depended on by built code.

package anklume

import (
	_ "golang.org/x/tools/cmd/goimports"
)
