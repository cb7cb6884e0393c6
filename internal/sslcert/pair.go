package sslcert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultCertFile = "cert.pem" // Путь к файлу сертификата по умолчанию.
	DefaultKeyFile  = "key.pem"  // Путь к файлу приватного ключа по умолчанию.
)

// Pair пути к PEM файлам сертификата и ключа, с которыми стартует HTTPS сервер.
type Pair struct {
	CertFile string
	KeyFile  string
}

// NewPair возвращает пару путей, пустые значения заменяются путями по умолчанию.
func NewPair(certFile, keyFile string) Pair {
	if certFile == "" {
		certFile = DefaultCertFile
	}
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	return Pair{CertFile: certFile, KeyFile: keyFile}
}

// EnsurePair проверяет файлы сертификата и ключа.
// Если файлов нет, они пусты или сертификат просрочен, генерирует новую пару и перезаписывает файлы.
//
// Возвращает:
//   - bool: true если пара была сгенерирована
//   - error: ошибка при проверке/генерации/сохранении.
func (g *Generator) EnsurePair(pair Pair, modifiers ...Modifier) (bool, error) {
	certPEM, errCert := readIfExists(pair.CertFile)
	if errCert != nil {
		return false, fmt.Errorf("read certificate file: %w", errCert)
	}
	keyPEM, errKey := readIfExists(pair.KeyFile)
	if errKey != nil {
		return false, fmt.Errorf("read key file: %w", errKey)
	}

	errCheck := g.CheckPemFiles(bytes.NewReader(certPEM), bytes.NewReader(keyPEM))
	if errCheck == nil {
		return false, nil
	}
	if !errors.Is(errCheck, ErrBlankPEM) && !errors.Is(errCheck, ErrCertExpired) {
		return false, fmt.Errorf("check certificate and private key: %w", errCheck)
	}

	newCert, newKey, errGen := g.Generate(modifiers...)
	if errGen != nil {
		return false, fmt.Errorf("generate certificate and private key: %w", errGen)
	}
	if err := writeFile(pair.CertFile, newCert); err != nil {
		return false, fmt.Errorf("save certificate: %w", err)
	}
	if err := writeFile(pair.KeyFile, newKey); err != nil {
		return false, fmt.Errorf("save private key: %w", err)
	}
	return true, nil
}

func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err //nolint:wrapcheck
}

// writeFile создает недостающие директории и перезаписывает файл целиком.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
