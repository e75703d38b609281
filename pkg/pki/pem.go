package pki

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const (
	PEMCertificateBlock   = "CERTIFICATE"
	PEMRequestBlock       = "CERTIFICATE REQUEST"
	PEMRSAPrivateKeyBlock = "RSA PRIVATE KEY"
)

// EncodeKey pem encode an rsa private key in pkcs1 form.
func EncodeKey(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMRSAPrivateKeyBlock,
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func EncodeCert(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMCertificateBlock,
		Bytes: cert.Raw,
	})
}

func EncodeRequest(req *x509.CertificateRequest) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMRequestBlock,
		Bytes: req.Raw,
	})
}

// DecodeKey pem bytes to rsa.PrivateKey
func DecodeKey(keyPem []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPem)
	if block == nil {
		return nil, fmt.Errorf("can`t decode key pem block")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("can`t parse key: %w", err)
	}
	return key, nil
}

// DecodeCert pem bytes to x509.Certificate
func DecodeCert(certPem []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPem)
	if block == nil {
		return nil, fmt.Errorf("can`t decode cert pem block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("can`t parse cert: %w", err)
	}
	return cert, nil
}
