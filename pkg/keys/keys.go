package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PrivateKeyFile = "private.pem"
	PublicKeyFile  = "public.pem"

	keyBits = 2048
)

// KeyPair holds the RSA keys used to sign and verify tokens.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadOrGenerate reads the PEM encoded pair from dir. When either file is
// missing a fresh 2048-bit pair is generated and both files are rewritten.
func LoadOrGenerate(dir string) (*KeyPair, error) {
	privatePath := filepath.Join(dir, PrivateKeyFile)
	publicPath := filepath.Join(dir, PublicKeyFile)

	if exists(privatePath) && exists(publicPath) {
		return Load(privatePath, publicPath)
	}

	pair, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := pair.Save(dir); err != nil {
		return nil, err
	}
	return pair, nil
}

// Load parses an existing pair.
func Load(privatePath, publicPath string) (*KeyPair, error) {
	rawPrivate, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	rawPublic, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM(rawPrivate)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(rawPublic)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if private.PublicKey.N.Cmp(public.N) != 0 {
		return nil, errors.New("public key does not match private key")
	}

	return &KeyPair{Private: private, Public: public}, nil
}

// Generate creates a new in-memory pair.
func Generate() (*KeyPair, error) {
	private, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &KeyPair{Private: private, Public: &private.PublicKey}, nil
}

// Save writes the pair as PKCS#1 PEM files.
func (k *KeyPair) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create keys directory: %w", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(k.Private),
	})
	if err := os.WriteFile(filepath.Join(dir, PrivateKeyFile), privatePEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(k.Public),
	})
	if err := os.WriteFile(filepath.Join(dir, PublicKeyFile), publicPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
