package pki

import (
	"crypto/x509"
	"net"
	"time"
)

type CertificateOption func(*x509.Certificate)

func applyCertOptions(options []CertificateOption, cert *x509.Certificate) {
	for _, option := range options {
		option(cert)
	}
}

// CA marks the certificate as a signing authority.
func CA() CertificateOption {
	return func(certificate *x509.Certificate) {
		certificate.IsCA = true
		certificate.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature
	}
}

// Server sets the usages a TLS server certificate needs.
func Server() CertificateOption {
	return func(certificate *x509.Certificate) {
		certificate.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
		certificate.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	}
}

func NotAfter(time time.Time) CertificateOption {
	return func(certificate *x509.Certificate) {
		certificate.NotAfter = time
	}
}

func DNSNames(names []string) CertificateOption {
	return func(certificate *x509.Certificate) {
		certificate.DNSNames = names
	}
}

func IPAddresses(ips []net.IP) CertificateOption {
	return func(certificate *x509.Certificate) {
		certificate.IPAddresses = ips
	}
}
