// Command qweights quantizes weight tensors stored as JSON documents.
//
// Usage:
//
//	qweights forward --in w.json [--out q.json] [--bits 1] [--scaling scalar]
//	qweights backward --grad g.json --input w.json [--out dw.json]
//	qweights params [key=value ...]
//	qweights version
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
