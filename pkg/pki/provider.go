package pki

import (
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"time"
)

// Provider is the X509 toolkit boundary. Every cryptographic operation the
// tool performs goes through this interface so the workflow around it can be
// tested and the backing implementation swapped.
type Provider interface {
	GenerateKey(bits int) (*rsa.PrivateKey, error)                                                                                                        // Generate a new rsa private key.
	CreateRequest(key *rsa.PrivateKey, subject pkix.Name, dnsNames []string, ips []net.IP) (*x509.CertificateRequest, error)                              // Build a CSR from a key and identity claims.
	SelfSign(key *rsa.PrivateKey, req *x509.CertificateRequest, serial *big.Int, validity time.Duration, opts ...CertificateOption) ([]byte, error)       // Self-sign a root certificate, pem encoded.
	Sign(caKey *rsa.PrivateKey, caCert *x509.Certificate, req *x509.CertificateRequest, serial *big.Int, validity time.Duration, opts ...CertificateOption) ([]byte, error) // Sign a CSR with the ca pair, pem encoded.
	Inspect(certPem []byte) (string, error)                                                                                                               // Render a certificate as human readable text.
	Verify(certPem []byte, caPem []byte) error                                                                                                            // Verify the cert chains to the ca.
}
