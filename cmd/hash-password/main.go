// hash-password prints the bcrypt hash for ITEFM_PASSWORD_HASH.
//
// Usage:
//
//	go run ./cmd/hash-password -password 'secret'
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/itefm_backend/utils"
)

func main() {
	password := flag.String("password", "", "Required: plain text password")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(2)
	}
	hashed, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hashed))
}
