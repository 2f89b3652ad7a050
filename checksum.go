package main

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

func verifyChecksumOfReleaseAsset(logger *logrus.Entry, assetPath string, checksumMap map[string]bool, algorithm string) error {
	computedChecksum, err := computeChecksum(assetPath, algorithm)
	if err != nil {
		return newError(errorWhileComputingChecksum, err.Error())
	}
	if found := checksumMap[computedChecksum]; !found {
		keys := make([]string, 0, len(checksumMap))
		for key := range checksumMap {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return newError(checksumDoesNotMatch, fmt.Sprintf("Expected the checksum of release asset %s to be one of [%s], but instead got %s. Either the checksum passed to publish-extension is stale, or the asset was replaced and should not be built.", assetPath, strings.Join(keys, ", "), computedChecksum))
	}
	logger.Infof("Release asset checksum verified for %s", assetPath)

	return nil
}

func computeChecksum(filePath string, algorithm string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher, err := getHasher(algorithm)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(hasher, file)
	if err != nil {
		return "", err
	}

	return hasherToString(hasher), nil
}

// Return a hasher instance, the common interface used by all Golang hashing functions
func getHasher(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("The checksum algorithm \"%s\" is not supported", algorithm)
	}
}

// Convert a hasher instance to the string value of that hasher
func hasherToString(hasher hash.Hash) string {
	return hex.EncodeToString(hasher.Sum(nil))
}
