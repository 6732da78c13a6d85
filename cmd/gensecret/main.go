// Command gensecret prints a random hex-encoded secret suitable for the
// SECRET_KEY setting.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

const defaultBytesLen = 32

func main() {
	bytesLen := defaultBytesLen
	if len(os.Args) > 1 {
		parsed, err := strconv.Atoi(os.Args[1])
		if err != nil || parsed < defaultBytesLen {
			fmt.Printf("usage: gensecret [bytes>=%d]\n", defaultBytesLen)
			os.Exit(1)
		}
		bytesLen = parsed
	}

	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		fmt.Printf("error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
