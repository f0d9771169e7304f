// Package signer produces the PKCS#7 (CMS) payload WSAA expects in loginCms.
//
// The login ticket request is signed in attached (non-detached) mode, so the
// SignedData carries the document itself. The result is first rendered the
// way an S/MIME tool would print it and then the MIME preamble is dropped:
// WSAA wants only what follows the first four lines.
package signer

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strings"

	"github.com/layer-3/afip/core"
	"github.com/layer-3/afip/ports"
	"github.com/pkg/errors"
	"github.com/smallstep/pkcs7"
	"github.com/youmark/pkcs8"
)

// MIMEPreambleLines is the number of leading lines removed from the S/MIME
// rendering before the payload is sent to WSAA.
const MIMEPreambleLines = 4

const smimeHeader = "MIME-Version: 1.0\n" +
	"Content-Disposition: attachment; filename=\"smime.p7m\"\n" +
	"Content-Type: application/x-pkcs7-mime; smime-type=signed-data; name=\"smime.p7m\"\n" +
	"Content-Transfer-Encoding: base64\n" +
	"\n"

// FileSigner reads the certificate and private key on every call so key
// material is never kept in memory between logins.
type FileSigner struct {
	certFile   string
	keyFile    string
	passphrase string
}

// NewFileSigner creates a signer using the crt_file, private_key_file and key_phrase settings
func NewFileSigner(certFile, keyFile, passphrase string) *FileSigner {
	return &FileSigner{certFile: certFile, keyFile: keyFile, passphrase: passphrase}
}

var _ ports.Signer = (*FileSigner)(nil)

// Sign loads the credentials and signs the document
func (s *FileSigner) Sign(ctx context.Context, document []byte) (string, error) {
	certificate, err := os.ReadFile(s.certFile)
	if err != nil {
		return "", errors.Wrapf(core.ErrSigning, "failed to read certificate: %v", err)
	}
	privateKey, err := os.ReadFile(s.keyFile)
	if err != nil {
		return "", errors.Wrapf(core.ErrSigning, "failed to read private key: %v", err)
	}

	return SignCMS(document, core.Credentials{
		Certificate: certificate,
		PrivateKey:  privateKey,
		Passphrase:  s.passphrase,
	})
}

// SignCMS signs document with the given credentials and returns the CMS
// payload without its MIME preamble.
func SignCMS(document []byte, creds core.Credentials) (string, error) {
	cert, err := parseCertificate(creds.Certificate)
	if err != nil {
		return "", errors.Wrap(core.ErrSigning, err.Error())
	}
	key, err := parsePrivateKey(creds.PrivateKey, creds.Passphrase)
	if err != nil {
		return "", errors.Wrap(core.ErrSigning, err.Error())
	}

	signedData, err := pkcs7.NewSignedData(document)
	if err != nil {
		return "", errors.Wrap(core.ErrSigning, "An error occurred generating PKCS#7 signature")
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := signedData.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		return "", errors.Wrapf(core.ErrSigning, "An error occurred generating PKCS#7 signature: %v", err)
	}
	der, err := signedData.Finish()
	if err != nil {
		return "", errors.Wrapf(core.ErrSigning, "An error occurred generating PKCS#7 signature: %v", err)
	}

	return StripMIMEPreamble(renderSMIME(der)), nil
}

// StripMIMEPreamble drops the first MIMEPreambleLines lines of an S/MIME text.
func StripMIMEPreamble(smime string) string {
	rest := smime
	for i := 0; i < MIMEPreambleLines; i++ {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			return ""
		}
		rest = rest[idx+1:]
	}
	return rest
}

func renderSMIME(der []byte) string {
	encoded := base64.StdEncoding.EncodeToString(der)

	var b strings.Builder
	b.WriteString(smimeHeader)
	for len(encoded) > 64 {
		b.WriteString(encoded[:64])
		b.WriteByte('\n')
		encoded = encoded[64:]
	}
	b.WriteString(encoded)
	b.WriteString("\n\n")
	return b.String()
}

func parseCertificate(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		// DER encoded certificate
		cert, err := x509.ParseCertificate(data)
		return cert, errors.Wrap(err, "certificate is neither PEM nor DER")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse certificate")
	}
	return cert, nil
}

func parsePrivateKey(data []byte, passphrase string) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("private key is not PEM encoded")
	}

	der := block.Bytes
	//nolint:staticcheck // legacy OpenSSL encrypted keys are still issued for WSAA
	if x509.IsEncryptedPEMBlock(block) {
		var err error
		if der, err = x509.DecryptPEMBlock(block, []byte(passphrase)); err != nil {
			return nil, errors.Wrap(err, "failed to decrypt private key")
		}
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(der)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(der)
	case "ENCRYPTED PRIVATE KEY":
		key, err = pkcs8.ParsePKCS8PrivateKey(der, []byte(passphrase))
	default:
		key, err = x509.ParsePKCS8PrivateKey(der)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, errors.New("unsupported private key type")
	}
	return signer, nil
}
