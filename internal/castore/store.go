// Package castore owns the on-disk representation of a single certificate
// authority. A CA directory is the authoritative unit: every command re-reads
// it, nothing is cached across invocations.
package castore

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/voslund/camint/internal/fsutil"
	"github.com/voslund/camint/internal/logging"
	"github.com/voslund/camint/pkg/pki"
)

const (
	KeyFile    = "ca.key"
	CertFile   = "ca.crt"
	SerialFile = "ca.srl"
	IndexFile  = "ca.index"
	PolicyFile = "openssl.cnf"
	ServersDir = "servers"

	DefaultOrg = "camint"

	// DefaultLeafDays is the validity applied to issued server certificates
	// when the caller does not pick one.
	DefaultLeafDays = 730

	caValidity = 10 * 365 * 24 * time.Hour
)

// Paths to the three files every dependent operation needs.
type Paths struct {
	Key    string
	Cert   string
	Policy string
}

// Store is a handle on one CA directory. It holds no state besides the path
// and the provider, filesystem content is the single source of truth.
type Store struct {
	dir      string
	provider pki.Provider
}

func New(dir string, provider pki.Provider) *Store {
	return &Store{dir: dir, provider: provider}
}

func (s *Store) Dir() string        { return s.dir }
func (s *Store) KeyPath() string    { return filepath.Join(s.dir, KeyFile) }
func (s *Store) CertPath() string   { return filepath.Join(s.dir, CertFile) }
func (s *Store) SerialPath() string { return filepath.Join(s.dir, SerialFile) }
func (s *Store) IndexPath() string  { return filepath.Join(s.dir, IndexFile) }
func (s *Store) PolicyPath() string { return filepath.Join(s.dir, PolicyFile) }
func (s *Store) ServersPath() string {
	return filepath.Join(s.dir, ServersDir)
}

func (s *Store) Serials() *SerialProvider {
	return NewSerialProvider(s.SerialPath())
}

func (s *Store) Index() *Index {
	return NewIndex(s.IndexPath())
}

// Create bootstraps a new CA directory: signing policy document, empty
// issuance index, random serial seed, private key and a self-signed root
// certificate with CN "<org> Root CA". The key is written with O_EXCL so two
// racing creations cannot both succeed.
func (s *Store) Create(org string, out io.Writer) error {
	if s.dir == "" {
		return fmt.Errorf("%w: output directory is required", pki.ErrInvalidInput)
	}
	if org == "" {
		org = DefaultOrg
	}

	keyExists := fileExists(s.KeyPath())
	certExists := fileExists(s.CertPath())
	if keyExists && certExists {
		return fmt.Errorf("%w: ca already present in %v", pki.ErrAlreadyExists, s.dir)
	}

	if err := os.MkdirAll(s.ServersPath(), 0750); err != nil {
		return fmt.Errorf("can't create %v: %w", s.dir, err)
	}

	// The key is written first and exclusively. A racing second creation
	// loses here before it can touch any other CA state.
	key, err := s.provider.GenerateKey(pki.CAKeyBits)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileExclusive(s.KeyPath(), pki.EncodeKey(key), 0600); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: ca key already present in %v", pki.ErrAlreadyExists, s.dir)
		}
		return fmt.Errorf("can't write ca key: %w", err)
	}
	if err := os.Chmod(s.KeyPath(), 0400); err != nil {
		// Accepted risk: a CA with a readable key beats no CA at all.
		logging.L.Warn("can't restrict ca key permissions",
			zap.String("path", s.KeyPath()), zap.Error(err))
	}

	if err := fsutil.WriteFileAtomic(s.PolicyPath(), bytes.NewReader(RenderCAPolicy(org)), 0644); err != nil {
		return fmt.Errorf("can't write signing policy: %w", err)
	}
	if !fileExists(s.IndexPath()) {
		if err := fsutil.WriteFileAtomic(s.IndexPath(), bytes.NewReader(nil), 0644); err != nil {
			return fmt.Errorf("can't write issuance index: %w", err)
		}
	}
	if err := s.Serials().Seed(); err != nil {
		return fmt.Errorf("can't seed serial file: %w", err)
	}

	subject := pkix.Name{
		CommonName:   org + " Root CA",
		Organization: []string{org},
	}
	req, err := s.provider.CreateRequest(key, subject, nil, nil)
	if err != nil {
		return err
	}
	serial, err := s.Serials().Next()
	if err != nil {
		return err
	}
	certPem, err := s.provider.SelfSign(key, req, serial, caValidity, pki.CA())
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.CertPath(), bytes.NewReader(certPem), 0644); err != nil {
		return fmt.Errorf("can't write ca cert: %w", err)
	}

	fmt.Fprintf(out, "CA created for %q\n", org)
	fmt.Fprintf(out, "  key:  %v\n", s.KeyPath())
	fmt.Fprintf(out, "  cert: %v\n", s.CertPath())
	fmt.Fprintf(out, "Never disclose %v to anyone. Whoever holds it can issue certificates in this CA's name.\n", s.KeyPath())
	return nil
}

// Locate returns the key/cert/policy paths of an existing CA or ErrCANotFound
// when either the key or the certificate is missing. Every dependent command
// calls this first.
func (s *Store) Locate() (Paths, error) {
	p := Paths{Key: s.KeyPath(), Cert: s.CertPath(), Policy: s.PolicyPath()}
	if !fileExists(p.Key) || !fileExists(p.Cert) {
		return Paths{}, fmt.Errorf("%w: no ca in %v", pki.ErrCANotFound, s.dir)
	}
	return p, nil
}

// CA reads and decodes the signing pair.
func (s *Store) CA() (*rsa.PrivateKey, *x509.Certificate, error) {
	paths, err := s.Locate()
	if err != nil {
		return nil, nil, err
	}
	keyPem, err := os.ReadFile(paths.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("can't read ca key %v: %w", paths.Key, err)
	}
	key, err := pki.DecodeKey(keyPem)
	if err != nil {
		return nil, nil, err
	}
	certPem, err := os.ReadFile(paths.Cert)
	if err != nil {
		return nil, nil, fmt.Errorf("can't read ca cert %v: %w", paths.Cert, err)
	}
	cert, err := pki.DecodeCert(certPem)
	if err != nil {
		return nil, nil, err
	}
	return key, cert, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
