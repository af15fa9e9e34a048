// Command keyhash prints the bcrypt hash to put in AUTH_CLIENT_KEY_HASH.
//
//	keyhash <client-key>
//	echo -n <client-key> | keyhash
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/video-digest/backend/internal/auth"
)

func main() {
	var key string
	if len(os.Args) > 1 {
		key = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read key: %v", err)
		}
		key = strings.TrimRight(line, "\r\n")
	}
	if key == "" {
		log.Fatal("usage: keyhash <client-key>")
	}

	hash, err := auth.HashClientKey(key)
	if err != nil {
		log.Fatalf("hash key: %v", err)
	}
	fmt.Println(hash)
}
