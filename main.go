// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/devduck/devduck/cmd/devduck"

func main() {
	cmd.Execute()
}
