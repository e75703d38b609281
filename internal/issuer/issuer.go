// Package issuer produces server leaf certificates under an existing CA
// directory, one servers/<name>/ record per subject.
package issuer

import (
	"bytes"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voslund/camint/internal/castore"
	"github.com/voslund/camint/internal/fsutil"
	"github.com/voslund/camint/pkg/pki"
)

// placeholderCountry goes into the request DN, the original workflow never
// cared about real geography.
const placeholderCountry = "XX"

type Issuer struct {
	store    *castore.Store
	provider pki.Provider
}

func New(store *castore.Store, provider pki.Provider) *Issuer {
	return &Issuer{store: store, provider: provider}
}

// Issue creates the key/CSR/certificate triple for subject under
// <ca-dir>/servers/<subject>/ and appends a record to the issuance index.
// Re-issuing for a subject whose certificate already exists is rejected, the
// same way a second create-ca is. Partially written files from a failed run
// are left in place.
func (i *Issuer) Issue(subject string, validityDays int, out io.Writer) error {
	if _, err := i.store.Locate(); err != nil {
		return err
	}
	if err := validateSubject(subject); err != nil {
		return err
	}
	if validityDays <= 0 {
		validityDays = castore.DefaultLeafDays
	}

	dir := filepath.Join(i.store.ServersPath(), subject)
	keyPath := filepath.Join(dir, subject+".key")
	csrPath := filepath.Join(dir, subject+".csr")
	crtPath := filepath.Join(dir, subject+".crt")
	cnfPath := filepath.Join(dir, subject+".cnf")

	if _, err := os.Stat(crtPath); err == nil {
		return fmt.Errorf("%w: certificate for %v already issued, remove %v to re-issue", pki.ErrAlreadyExists, subject, dir)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("can't create %v: %w", dir, err)
	}
	if err := fsutil.WriteFileAtomic(cnfPath, bytes.NewReader(castore.RenderServerConfig(subject)), 0644); err != nil {
		return fmt.Errorf("can't write request config: %w", err)
	}

	key, err := i.provider.GenerateKey(pki.MinLeafKeyBits)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(keyPath, bytes.NewReader(pki.EncodeKey(key)), 0600); err != nil {
		return fmt.Errorf("can't write key: %w", err)
	}

	req, err := i.provider.CreateRequest(key,
		pkix.Name{
			Country:      []string{placeholderCountry},
			Organization: []string{subject},
			CommonName:   subject,
		},
		[]string{subject, "localhost"},
		[]net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(csrPath, bytes.NewReader(pki.EncodeRequest(req)), 0644); err != nil {
		return fmt.Errorf("can't write csr: %w", err)
	}

	caKey, caCert, err := i.store.CA()
	if err != nil {
		return err
	}
	serial, err := i.store.Serials().Next()
	if err != nil {
		return fmt.Errorf("%w: %v", pki.ErrSigningFailed, err)
	}
	validity := time.Duration(validityDays) * 24 * time.Hour
	certPem, err := i.provider.Sign(caKey, caCert, req, serial, validity, pki.Server())
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(crtPath, bytes.NewReader(certPem), 0644); err != nil {
		return fmt.Errorf("can't write cert: %w", err)
	}

	cert, err := pki.DecodeCert(certPem)
	if err != nil {
		return err
	}
	rec := castore.NewIssuedRecord(cert.NotAfter, serial, subject+".crt", cert.Subject.String())
	if err := i.store.Index().Append(rec); err != nil {
		return err
	}

	fmt.Fprintf(out, "Issued certificate for %q, valid %v days\n", subject, validityDays)
	fmt.Fprintf(out, "  key:  %v\n", keyPath)
	fmt.Fprintf(out, "  csr:  %v\n", csrPath)
	fmt.Fprintf(out, "  cert: %v\n", crtPath)
	fmt.Fprintf(out, "\nTLS configuration snippet:\n")
	fmt.Fprintf(out, "  tls_cert_file = %v\n", crtPath)
	fmt.Fprintf(out, "  tls_key_file  = %v\n", keyPath)
	fmt.Fprintf(out, "  tls_ca_file   = %v\n", i.store.CertPath())
	return nil
}

func validateSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("%w: server name is required", pki.ErrInvalidInput)
	}
	if subject != filepath.Base(subject) || subject == "." || subject == ".." ||
		strings.ContainsAny(subject, "/\\") {
		return fmt.Errorf("%w: server name %q is not path-safe", pki.ErrInvalidInput, subject)
	}
	return nil
}
