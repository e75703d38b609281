// Package inspect reads certificates back out of a CA directory: summaries
// for list, full decode plus chain verification for check.
package inspect

import (
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/voslund/camint/internal/castore"
	"github.com/voslund/camint/pkg/pki"
)

type Inspector struct {
	provider pki.Provider
}

func New(provider pki.Provider) *Inspector {
	return &Inspector{provider: provider}
}

// List prints the CA summary followed by one line per issued server
// certificate. A broken leaf is reported inline and does not stop the walk.
func (i *Inspector) List(caDir string, out io.Writer) error {
	info, err := os.Stat(caDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: no such directory %v", pki.ErrNotFound, caDir)
	}
	store := castore.New(caDir, i.provider)

	if cert, err := readCert(store.CertPath()); err != nil {
		fmt.Fprintf(out, "CA certificate: absent (%v)\n", store.CertPath())
	} else {
		fmt.Fprintf(out, "CA: %s\n", pki.Summary(cert))
	}

	if records, err := store.Index().Records(); err == nil {
		fmt.Fprintf(out, "Issuance index: %v record(s)\n", len(records))
	}

	names, err := serverNames(store.ServersPath())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Server certificates: %v\n", len(names))
	for _, name := range names {
		crtPath := filepath.Join(store.ServersPath(), name, name+".crt")
		cert, err := readCert(crtPath)
		if err != nil {
			fmt.Fprintf(out, "  %v: can't inspect: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "  %v: %s\n", name, pki.Summary(cert))
	}
	return nil
}

// Check prints the decoded certificate and, when the conventional ../../ca.crt
// exists, verifies the chain against it. No ancestor CA is not an error.
func (i *Inspector) Check(certPath string, out io.Writer) error {
	certPem, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("%w: can't read %v", pki.ErrNotFound, certPath)
	}
	text, err := i.provider.Inspect(certPem)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)

	caPath := filepath.Join(filepath.Dir(certPath), "..", "..", castore.CertFile)
	caPem, err := os.ReadFile(caPath)
	if err != nil {
		return nil
	}
	if err := i.provider.Verify(certPem, caPem); err != nil {
		fmt.Fprintf(out, "Chain verification against %v: FAIL (%v)\n", caPath, err)
	} else {
		fmt.Fprintf(out, "Chain verification against %v: OK\n", caPath)
	}
	return nil
}

func serverNames(serversDir string) ([]string, error) {
	entries, err := os.ReadDir(serversDir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("can't read %v: %w", serversDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readCert(path string) (*x509.Certificate, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return pki.DecodeCert(pemBytes)
}
