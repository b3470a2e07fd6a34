// Command sgsh-store runs the store's event loop (§6 Store CLI):
//
//	sgsh-store [-l length | -t separator_char] socket_path
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sgsh/sgsh/store"
)

func main() {
	cfg, err := store.FromFlags("sgsh-store", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, store.ErrTimeWindowUnsupported) {
			os.Exit(1)
		}
		os.Exit(1)
	}

	srv, err := store.NewServer(cfg, store.DefaultOptions)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer srv.Close()

	code, err := srv.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
	os.Exit(code)
}
