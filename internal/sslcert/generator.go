package sslcert

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"time"
)

const rsaKeyBits = 2048

// Generator генератор самоподписанных сертификатов для локального HTTPS.
// Содержит базовый шаблон сертификата.
type Generator struct {
	template x509.Certificate
	now      func() time.Time
}

// New создает генератор с шаблоном по умолчанию:
//   - Организация: "shortlinks"
//   - Хосты: localhost, 127.0.0.1, ::1
//   - Срок действия: 1 год
//   - Назначение: серверная аутентификация.
func New() (*Generator, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128)) //nolint:mnd
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}
	now := time.Now()
	return &Generator{
		template: x509.Certificate{
			SerialNumber: serial,
			Subject: pkix.Name{
				Organization: []string{"shortlinks"},
				CommonName:   "localhost",
			},
			DNSNames: []string{"localhost"},
			IPAddresses: []net.IP{
				net.IPv4(127, 0, 0, 1), //nolint:mnd
				net.IPv6loopback,
			},
			NotBefore:   now.Add(-time.Minute),
			NotAfter:    now.AddDate(1, 0, 0),
			ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
			KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		},
		now: time.Now,
	}, nil
}

// MustNew аналогичен New(), но в случае ошибки вызывает панику.
func MustNew() *Generator {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

// Modifier модификатор для изменения параметров сертификата.
type Modifier struct {
	apply func(*x509.Certificate)
}

// Modify создает новый модификатор сертификата.
func Modify(fn func(*x509.Certificate)) Modifier {
	return Modifier{apply: fn}
}

// Generate генерирует новую пару сертификат/приватный ключ в формате PEM.
// Модификаторы применяются к копии шаблона.
func (g *Generator) Generate(modifiers ...Modifier) ([]byte, []byte, error) {
	cert := g.template
	for _, m := range modifiers {
		m.apply(&cert)
	}

	privKey, errGenPrivKey := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if errGenPrivKey != nil {
		return nil, nil, fmt.Errorf("generate private key: %w", errGenPrivKey)
	}
	certBytes, errGenCert := x509.CreateCertificate(rand.Reader, &cert, &cert, &privKey.PublicKey, privKey)
	if errGenCert != nil {
		return nil, nil, fmt.Errorf("generate certificate: %w", errGenCert)
	}

	certPEM, privPEM, errPEM := pemEncode(privKey, certBytes)
	if errPEM != nil {
		return nil, nil, fmt.Errorf("encode certificate and private key: %w", errPEM)
	}
	return certPEM, privPEM, nil
}

// CheckPemFiles проверяет PEM-данные сертификата и приватного ключа.
//
// Возможные ошибки:
//   - ErrBlankPEM: пустые данные
//   - ErrCertExpired: срок действия сертификата истек
//   - ErrCertNotValidYet: сертификат еще не вступил в силу.
func (g *Generator) CheckPemFiles(certSource io.Reader, keySource io.Reader) error {
	certBytes, errReadCert := io.ReadAll(certSource)
	if errReadCert != nil {
		return fmt.Errorf("read certificate: %w", errReadCert)
	}
	keyBytes, errReadKey := io.ReadAll(keySource)
	if errReadKey != nil {
		return fmt.Errorf("read private key: %w", errReadKey)
	}
	if len(bytes.TrimSpace(certBytes)) == 0 || len(bytes.TrimSpace(keyBytes)) == 0 {
		return ErrBlankPEM
	}

	certBlock, errCertDecode := pemDecode(certBytes)
	if errCertDecode != nil {
		return fmt.Errorf("decode certificate: %w", errCertDecode)
	}
	if certBlock.Type != "CERTIFICATE" {
		return errors.New("certificate type is not CERTIFICATE")
	}
	if _, errKeyDecode := pemDecode(keyBytes); errKeyDecode != nil {
		return fmt.Errorf("decode private key: %w", errKeyDecode)
	}

	cert, errParseCert := x509.ParseCertificate(certBlock.Bytes)
	if errParseCert != nil {
		return fmt.Errorf("parse certificate: %w", errParseCert)
	}

	now := g.now()
	if cert.NotBefore.After(now) {
		return ErrCertNotValidYet
	}
	if cert.NotAfter.Before(now) {
		return ErrCertExpired
	}
	return nil
}

func pemDecode(data []byte) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("pem decode: block is nil")
	}
	return block, nil
}

// pemEncode кодирует сертификат и приватный ключ в формат PEM.
func pemEncode(privKey *rsa.PrivateKey, certBytes []byte) ([]byte, []byte, error) {
	var certPEM bytes.Buffer
	if errPemEncode := pem.Encode(&certPEM, &pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certBytes,
	}); errPemEncode != nil {
		return nil, nil, fmt.Errorf("pem encode certificate: %w", errPemEncode)
	}

	var privKeyPEM bytes.Buffer
	if errPemEncode := pem.Encode(&privKeyPEM, &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privKey),
	}); errPemEncode != nil {
		return nil, nil, fmt.Errorf("pem encode RSA: %w", errPemEncode)
	}

	return certPEM.Bytes(), privKeyPEM.Bytes(), nil
}
