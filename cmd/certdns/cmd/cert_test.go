package cmd

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func selfSigned(t *testing.T, notBefore, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "api.example.com"},
		DNSNames:     []string{"api.example.com"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestValidity(t *testing.T) {
	notBefore := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	notAfter := notBefore.Add(90 * 24 * time.Hour)

	keyBlock := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1, 2, 3}})
	bundle := append(keyBlock, selfSigned(t, notBefore, notAfter)...)

	from, to, err := validity(bundle)
	require.NoError(t, err)
	assert.True(t, from.Equal(notBefore))
	assert.True(t, to.Equal(notAfter))

	_, _, err = validity([]byte("not pem"))
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, in := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(in)
		assert.Error(t, err, in)
	}
}

func TestGetZapLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, getZapLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, getZapLogLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, getZapLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, getZapLogLevel("verbose"))
}
