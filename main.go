// SPDX-License-Identifier: MIT
package main

import "github.com/skaphos/repomirror/cmd/repomirror"

var execute = repomirror.Execute

func main() {
	execute()
}
