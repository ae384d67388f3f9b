// Package main provides a one-shot utility for access token key generation.
//
// It emits the asymmetric keypair used to sign and verify actor tokens.
package main

import (
	"os"

	"github.com/clearbid/tenderspace/internal/platform/config"
	"github.com/clearbid/tenderspace/internal/tools/accesskey"
)

func main() {
	if err := accesskey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate access token key: %v", err)
	}
}
