// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"crypto/tls"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// TLSConfig TLS listen 配置. Certificate and PrivateKey are file paths or PEM text.
type TLSConfig struct {
	ListenAddr  string `json:"listen"`
	Certificate string `json:"cert"`
	PrivateKey  string `json:"key"`
}

// Enabled reports whether a TLS listener is configured.
func (c *TLSConfig) Enabled() bool {
	return c != nil && c.ListenAddr != "" && c.Certificate != "" && c.PrivateKey != ""
}

// Load loads the key pair; PEM text is used as is, anything else is a
// file path relative to the working directory.
func (c *TLSConfig) Load() (*tls.Config, error) {
	if c.PrivateKey == "" || c.Certificate == "" {
		return nil, errors.New("no certificate or private key configured")
	}

	var (
		cer tls.Certificate
		err error
	)
	if isPEM(c.Certificate) && isPEM(c.PrivateKey) {
		cer, err = tls.X509KeyPair([]byte(c.Certificate), []byte(c.PrivateKey))
	} else {
		cer, err = tls.LoadX509KeyPair(resolvePath(c.Certificate), resolvePath(c.PrivateKey))
	}
	if err != nil {
		return nil, errors.Wrap(err, "tls key pair")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cer},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func isPEM(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "-----BEGIN")
}

func resolvePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
