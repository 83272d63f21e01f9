//go:build tools
// +build tools

// Package tools pins the development tools used by tkwin.
package tools

// $ go generate -tags tools tools/tools.go
import (
	//go:generate go install golang.org/x/tools/cmd/goimports
	_ "golang.org/x/tools/cmd/goimports"

	//go:generate go install github.com/client9/misspell/cmd/misspell
	_ "github.com/client9/misspell/cmd/misspell"
)
