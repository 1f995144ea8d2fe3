package client

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
)

// loadCertPool builds the trust pool for the cluster's certificates.
// path may name a single PEM file or a directory of PEM files, which then
// become the only trusted roots. An empty path leaves verification to the
// system roots.
func loadCertPool(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat CA path %s: %w", path, err)
	}

	pool := x509.NewCertPool()
	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA directory %s: %w", path, err)
		}
		files = files[:0]
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
	}

	loaded := 0
	for _, f := range files {
		pem, err := os.ReadFile(f)
		if err != nil {
			// dangling links are common in certificate directories
			continue
		}
		if pool.AppendCertsFromPEM(pem) {
			loaded++
		}
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no PEM certificates found in %s", path)
	}
	return pool, nil
}
