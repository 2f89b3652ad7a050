package main

import (
	"fmt"
	"os"

	"github.com/jedisct1/go-minisign"
)

// signatureSuffix is appended to an asset name to find its detached minisign signature in the same release
const signatureSuffix = ".minisig"

// verifyMinisignSignature checks the file at assetPath against the minisign signature at sigPath
func verifyMinisignSignature(assetPath, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return newError(signatureDoesNotVerify, fmt.Sprintf("Failed to read minisign public key %s: %s", pubKeyPath, err))
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return newError(signatureDoesNotVerify, fmt.Sprintf("Failed to read minisign signature %s: %s", sigPath, err))
	}

	content, err := os.ReadFile(assetPath)
	if err != nil {
		return wrapError(err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil || !valid {
		reason := "signature does not match"
		if err != nil {
			reason = err.Error()
		}
		return newError(signatureDoesNotVerify, fmt.Sprintf("Minisign verification of %s failed: %s", assetPath, reason))
	}

	return nil
}
