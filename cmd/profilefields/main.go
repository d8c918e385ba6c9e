// Command profilefields manages custom user profile fields and serves
// the profile pages.
package main

import "github.com/mesh-intelligence/profilefields/internal/cli"

func main() {
	cli.Execute()
}
