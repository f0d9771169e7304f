package signer_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/layer-3/afip/adapters/signer"
	"github.com/layer-3/afip/core"
	"github.com/smallstep/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

type keyPair struct {
	certPEM []byte
	keyPEM  []byte
	key     *rsa.PrivateKey
}

func newKeyPair(t *testing.T) keyPair {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "facturacion", SerialNumber: "CUIT 20123456789"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return keyPair{
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		key:     key,
	}
}

func decodeCMS(t *testing.T, cms string) *pkcs7.PKCS7 {
	t.Helper()

	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(cms), ""))
	require.NoError(t, err)
	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)
	return p7
}

func loginRequest(t *testing.T) []byte {
	t.Helper()
	doc, err := core.NewLoginTicketRequest("wsfe", time.Now()).Marshal()
	require.NoError(t, err)
	return doc
}

func TestSignCMS_AttachedAndVerifiable(t *testing.T) {
	kp := newKeyPair(t)
	doc := loginRequest(t)

	cms, err := signer.SignCMS(doc, core.Credentials{Certificate: kp.certPEM, PrivateKey: kp.keyPEM})
	require.NoError(t, err)

	assert.NotContains(t, cms, "MIME-Version")
	assert.NotContains(t, cms, "Content-Type")

	p7 := decodeCMS(t, cms)
	require.NoError(t, p7.Verify())
	assert.Equal(t, doc, p7.Content)
	require.Len(t, p7.Certificates, 1)
	assert.Equal(t, "facturacion", p7.Certificates[0].Subject.CommonName)
}

func TestSignCMS_EncryptedPKCS8Key(t *testing.T) {
	kp := newKeyPair(t)
	der, err := pkcs8.ConvertPrivateKeyToPKCS8(kp.key, []byte("s3cret"))
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})
	doc := loginRequest(t)

	cms, err := signer.SignCMS(doc, core.Credentials{Certificate: kp.certPEM, PrivateKey: keyPEM, Passphrase: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, doc, decodeCMS(t, cms).Content)

	_, err = signer.SignCMS(doc, core.Credentials{Certificate: kp.certPEM, PrivateKey: keyPEM, Passphrase: "wrong"})
	assert.ErrorIs(t, err, core.ErrSigning)
}

func TestSignCMS_UnreadableKeyMaterial(t *testing.T) {
	kp := newKeyPair(t)
	doc := loginRequest(t)

	_, err := signer.SignCMS(doc, core.Credentials{Certificate: kp.certPEM, PrivateKey: []byte("not a key")})
	assert.ErrorIs(t, err, core.ErrSigning)

	_, err = signer.SignCMS(doc, core.Credentials{Certificate: []byte("not a cert"), PrivateKey: kp.keyPEM})
	assert.ErrorIs(t, err, core.ErrSigning)
}

func TestFileSigner(t *testing.T) {
	kp := newKeyPair(t)
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.crt")
	keyFile := filepath.Join(dir, "private.key")
	require.NoError(t, os.WriteFile(certFile, kp.certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, kp.keyPEM, 0o600))

	doc := loginRequest(t)
	cms, err := signer.NewFileSigner(certFile, keyFile, "").Sign(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, doc, decodeCMS(t, cms).Content)

	_, err = signer.NewFileSigner(certFile, filepath.Join(dir, "missing.key"), "").Sign(context.Background(), doc)
	assert.ErrorIs(t, err, core.ErrSigning)
}

func TestStripMIMEPreamble(t *testing.T) {
	in := "MIME-Version: 1.0\nContent-Disposition: x\nContent-Type: y\nContent-Transfer-Encoding: base64\n\nQUJD\nREVG\n"
	assert.Equal(t, "\nQUJD\nREVG\n", signer.StripMIMEPreamble(in))
	assert.Equal(t, "", signer.StripMIMEPreamble("one\ntwo\n"))
}
