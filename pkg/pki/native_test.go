package pki

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNative_GenerateKey(t *testing.T) {
	n := NewNative()
	t.Run("requested size", func(t *testing.T) {
		key, err := n.GenerateKey(2048)
		require.NoError(t, err)
		assert.Equal(t, 2048, key.N.BitLen())
	})
	t.Run("too small gets raised to the minimum", func(t *testing.T) {
		key, err := n.GenerateKey(512)
		require.NoError(t, err)
		assert.Equal(t, MinLeafKeyBits, key.N.BitLen())
	})
}

func TestNative_SelfSign(t *testing.T) {
	n := NewNative()
	key, err := n.GenerateKey(2048)
	require.NoError(t, err)
	req, err := n.CreateRequest(key, pkix.Name{CommonName: "Acme Root CA", Organization: []string{"Acme"}}, nil, nil)
	require.NoError(t, err)

	certPem, err := n.SelfSign(key, req, big.NewInt(1), 24*time.Hour, CA())
	require.NoError(t, err)

	cert, err := DecodeCert(certPem)
	require.NoError(t, err)
	assert.True(t, cert.IsCA)
	assert.Equal(t, "Acme Root CA", cert.Subject.CommonName)
	assert.Equal(t, cert.Subject.String(), cert.Issuer.String())
	assert.Equal(t, big.NewInt(1), cert.SerialNumber)
}

func TestNative_Sign(t *testing.T) {
	n := NewNative()
	caKey, err := n.GenerateKey(2048)
	require.NoError(t, err)
	caReq, err := n.CreateRequest(caKey, pkix.Name{CommonName: "Acme Root CA"}, nil, nil)
	require.NoError(t, err)
	caPem, err := n.SelfSign(caKey, caReq, big.NewInt(1), 24*time.Hour, CA())
	require.NoError(t, err)
	caCert, err := DecodeCert(caPem)
	require.NoError(t, err)

	leafKey, err := n.GenerateKey(2048)
	require.NoError(t, err)
	leafReq, err := n.CreateRequest(leafKey, pkix.Name{CommonName: "peer1"},
		[]string{"peer1", "localhost"}, []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")})
	require.NoError(t, err)

	t.Run("sans and usages survive signing", func(t *testing.T) {
		leafPem, err := n.Sign(caKey, caCert, leafReq, big.NewInt(2), 24*time.Hour, Server())
		require.NoError(t, err)
		leaf, err := DecodeCert(leafPem)
		require.NoError(t, err)
		assert.Equal(t, []string{"peer1", "localhost"}, leaf.DNSNames)
		require.Len(t, leaf.IPAddresses, 2)
		assert.True(t, leaf.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
		assert.True(t, leaf.IPAddresses[1].Equal(net.ParseIP("::1")))
		assert.Contains(t, leaf.ExtKeyUsage, x509.ExtKeyUsageServerAuth)
		assert.Equal(t, "Acme Root CA", leaf.Issuer.CommonName)
		assert.False(t, leaf.IsCA)
	})
	t.Run("verify against the signer", func(t *testing.T) {
		leafPem, err := n.Sign(caKey, caCert, leafReq, big.NewInt(3), 24*time.Hour, Server())
		require.NoError(t, err)
		assert.NoError(t, n.Verify(leafPem, caPem))
	})
	t.Run("verify against a stranger fails", func(t *testing.T) {
		otherKey, err := n.GenerateKey(2048)
		require.NoError(t, err)
		otherReq, err := n.CreateRequest(otherKey, pkix.Name{CommonName: "Other Root CA"}, nil, nil)
		require.NoError(t, err)
		otherPem, err := n.SelfSign(otherKey, otherReq, big.NewInt(1), 24*time.Hour, CA())
		require.NoError(t, err)

		leafPem, err := n.Sign(caKey, caCert, leafReq, big.NewInt(4), 24*time.Hour, Server())
		require.NoError(t, err)
		assert.Error(t, n.Verify(leafPem, otherPem))
	})
	t.Run("missing serial is refused", func(t *testing.T) {
		_, err := n.Sign(caKey, caCert, leafReq, nil, 24*time.Hour, Server())
		assert.ErrorIs(t, err, ErrSigningFailed)
	})
	t.Run("missing signer cert is refused", func(t *testing.T) {
		_, err := n.Sign(caKey, nil, leafReq, big.NewInt(5), 24*time.Hour, Server())
		assert.ErrorIs(t, err, ErrCANotFound)
	})
}

func TestNative_SelfSignNoCN(t *testing.T) {
	n := NewNative()
	key, err := n.GenerateKey(2048)
	require.NoError(t, err)
	req, err := n.CreateRequest(key, pkix.Name{Organization: []string{"Acme"}}, nil, nil)
	require.NoError(t, err)
	_, err = n.SelfSign(key, req, big.NewInt(1), 24*time.Hour, CA())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNative_Inspect(t *testing.T) {
	n := NewNative()
	key, err := n.GenerateKey(2048)
	require.NoError(t, err)
	req, err := n.CreateRequest(key, pkix.Name{CommonName: "peer1"},
		[]string{"peer1", "localhost"}, []net.IP{net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	certPem, err := n.SelfSign(key, req, big.NewInt(7), 24*time.Hour, Server())
	require.NoError(t, err)

	text, err := n.Inspect(certPem)
	require.NoError(t, err)
	assert.Contains(t, text, "CN=peer1")
	assert.Contains(t, text, "peer1, localhost")
	assert.Contains(t, text, "127.0.0.1")
	assert.Contains(t, text, "server auth")

	t.Run("garbage input", func(t *testing.T) {
		_, err := n.Inspect([]byte("not a pem"))
		assert.Error(t, err)
	})
}
