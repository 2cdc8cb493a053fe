// SPDX-License-Identifier: MPL-2.0

// Command nextmap discovers the deployable pages of a Next.js serverless build.
package main

import cmd "github.com/nextmap/nextmap/cmd/nextmap"

func main() {
	cmd.Execute()
}
