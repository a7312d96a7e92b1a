// Generates a fresh pre-shared fernet key for the server and its clients.
//
// Usage:
//
//	keygen [-out secret.key]
//
// The same key file must be distributed out of band to every client that
// should be able to read the encrypted frames.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fernet/fernet-go"
)

var out = flag.String("out", "secret.key", "File to which the generated key will be written")

func main() {
	flag.Parse()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		fmt.Println("error generating key:", err)
		os.Exit(1)
	}

	encoded := key.Encode()
	if err := os.WriteFile(*out, []byte(encoded), 0600); err != nil {
		fmt.Println("error writing key file:", err)
		os.Exit(1)
	}

	fmt.Println("key generated and saved in", *out)
	fmt.Println("your key:")
	fmt.Println(encoded)
}
