package pki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"
)

const (
	// MinLeafKeyBits is the smallest key the native provider will generate.
	MinLeafKeyBits = 2048
	// CAKeyBits is the key size used for a new root CA.
	CAKeyBits = 4096
)

// Native implements Provider on crypto/x509, so no external toolkit binary is
// needed at runtime.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (n *Native) GenerateKey(bits int) (*rsa.PrivateKey, error) {
	if bits < MinLeafKeyBits {
		bits = MinLeafKeyBits
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: can`t generate key: %v", ErrSigningFailed, err)
	}
	return key, nil
}

func (n *Native) CreateRequest(key *rsa.PrivateKey, subject pkix.Name, dnsNames []string, ips []net.IP) (*x509.CertificateRequest, error) {
	template := x509.CertificateRequest{
		Subject:            subject,
		DNSNames:           dnsNames,
		IPAddresses:        ips,
		SignatureAlgorithm: sigAlgFor(key),
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, &template, key)
	if err != nil {
		return nil, fmt.Errorf("%w: can`t create request: %v", ErrSigningFailed, err)
	}
	request, err := x509.ParseCertificateRequest(der)
	if err != nil {
		return nil, fmt.Errorf("%w: can`t parse request: %v", ErrSigningFailed, err)
	}
	return request, nil
}

func (n *Native) SelfSign(key *rsa.PrivateKey, req *x509.CertificateRequest, serial *big.Int, validity time.Duration, opts ...CertificateOption) ([]byte, error) {
	return n.createCert(key, nil, req, serial, validity, opts...)
}

func (n *Native) Sign(caKey *rsa.PrivateKey, caCert *x509.Certificate, req *x509.CertificateRequest, serial *big.Int, validity time.Duration, opts ...CertificateOption) ([]byte, error) {
	if caCert == nil {
		return nil, fmt.Errorf("%w: signer certificate is required", ErrCANotFound)
	}
	return n.createCert(caKey, caCert, req, serial, validity, opts...)
}

func (n *Native) createCert(signerKey *rsa.PrivateKey, parent *x509.Certificate, req *x509.CertificateRequest, serial *big.Int, validity time.Duration, opts ...CertificateOption) ([]byte, error) {
	if serial == nil {
		return nil, fmt.Errorf("%w: serial is required", ErrSigningFailed)
	}
	now := time.Now()

	template := &x509.Certificate{
		Subject:               req.Subject,
		PublicKeyAlgorithm:    req.PublicKeyAlgorithm,
		PublicKey:             req.PublicKey,
		SignatureAlgorithm:    req.SignatureAlgorithm,
		DNSNames:              req.DNSNames,
		IPAddresses:           req.IPAddresses,
		SerialNumber:          serial,
		NotBefore:             now.Add(-10 * time.Minute).UTC(),
		NotAfter:              now.Add(validity).UTC(),
		BasicConstraintsValid: true,
	}
	applyCertOptions(opts, template)

	if template.Subject.CommonName == "" {
		return nil, fmt.Errorf("%w: certificate CN is obligatory", ErrInvalidInput)
	}

	if parent == nil {
		parent = template
	}
	der, err := x509.CreateCertificate(rand.Reader, template, parent, req.PublicKey, signerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: certificate cannot be created: %v", ErrSigningFailed, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: certificate cannot be parsed: %v", ErrSigningFailed, err)
	}
	return EncodeCert(cert), nil
}

func (n *Native) Inspect(certPem []byte) (string, error) {
	cert, err := DecodeCert(certPem)
	if err != nil {
		return "", err
	}
	return CertificateText(cert), nil
}

func (n *Native) Verify(certPem []byte, caPem []byte) error {
	cert, err := DecodeCert(certPem)
	if err != nil {
		return err
	}
	caCert, err := DecodeCert(caPem)
	if err != nil {
		return err
	}
	roots := x509.NewCertPool()
	roots.AddCert(caCert)
	_, err = cert.Verify(x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fmt.Errorf("can`t verify %v against %v: %w", cert.Subject.CommonName, caCert.Subject.CommonName, err)
	}
	return nil
}

func sigAlgFor(key *rsa.PrivateKey) x509.SignatureAlgorithm {
	keySize := key.N.BitLen()
	switch {
	case keySize >= 4096:
		return x509.SHA512WithRSA
	case keySize >= 3072:
		return x509.SHA384WithRSA
	default:
		return x509.SHA256WithRSA
	}
}
