/*
 * Copyright 2023 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package vault

import (
	"context"
	"fmt"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"
	"go.uber.org/zap"
)

const (
	// MountKV2 is the mount path treated as a kv-v2 secrets engine, every other
	// mount is read as kv-v1
	MountKV2 = "kv2"
)

type Parameters struct {
	// connection and credential parameters
	Address         string
	ApproleRoleID   string
	ApproleSecretID string
	CACertBytes     []byte
}

// the locations / field names of kv secrets
type SecretProperties struct {
	MountPath     string
	Path          string
	UserField     string
	PasswordField string
	SecretName    string
}

type Vault struct {
	mu         sync.RWMutex
	client     *vault.Client
	Parameters Parameters
	isLoggedIn bool
}

// NewVaultAppRoleClient returns a client for the configured Vault address. Login
// must be called before secrets can be read.
func NewVaultAppRoleClient(ctx context.Context, parameters Parameters) (*Vault, error) {
	config := vault.DefaultConfig()
	config.Address = parameters.Address
	if len(parameters.CACertBytes) > 0 {
		if err := config.ConfigureTLS(&vault.TLSConfig{
			CACertBytes: parameters.CACertBytes,
		}); err != nil {
			return nil, fmt.Errorf("unable to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize vault client: %w", err)
	}

	vault := &Vault{
		client:     client,
		Parameters: parameters,
	}

	return vault, nil
}

// Login authenticates with the AppRole method; the client keeps the returned token.
// A single run never outlives the token so it is not renewed.
func (v *Vault) Login(ctx context.Context) error {
	authInfo, err := v.login(ctx)
	if err != nil {
		v.setLoggedIn(false)
		return err
	}
	v.setLoggedIn(true)
	zap.L().Debug("logged in to vault", zap.String("vault_addr", v.Parameters.Address),
		zap.Bool("renewable", authInfo.Auth != nil && authInfo.Auth.Renewable))
	return nil
}

// A combination of a RoleID and a SecretID is required to log into Vault
// with AppRole authentication method.
func (v *Vault) login(ctx context.Context) (*vault.Secret, error) {
	var roleId, secretId string
	v.mu.RLock()
	roleId = v.Parameters.ApproleRoleID
	secretId = v.Parameters.ApproleSecretID
	v.mu.RUnlock()

	approleSecretID := &approle.SecretID{
		FromString: secretId,
	}

	appRoleAuth, err := approle.NewAppRoleAuth(
		roleId,
		approleSecretID,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize approle authentication method: %w", err)
	}

	authInfo, err := v.client.Auth().Login(ctx, appRoleAuth)
	if err != nil {
		return nil, fmt.Errorf("unable to login using approle auth method: %w", err)
	}

	return authInfo, nil
}

// SecretPath joins the configured path with either the fixed secret name or, when
// none is configured, the per target secret (usually the BMC address).
func (props *SecretProperties) SecretPath(secret string) string {
	name := secret
	if props.SecretName != "" {
		name = props.SecretName
	}
	if props.Path != "" {
		return props.Path + "/" + name
	}
	return name
}

// GetKVSecret fetches the latest version of a secret from kv-v1 or kv-v2
func (v *Vault) GetKVSecret(ctx context.Context, props *SecretProperties, secret string) (*vault.KVSecret, error) {
	var kvSecret *vault.KVSecret
	var err error

	secretPath := props.SecretPath(secret)

	if props.MountPath != MountKV2 {
		kvSecret, err = v.client.KVv1(props.MountPath).Get(ctx, secretPath)
	} else {
		kvSecret, err = v.client.KVv2(props.MountPath).Get(ctx, secretPath)
	}

	if err != nil {
		return kvSecret, fmt.Errorf("unable to read secret: %w", err)
	}

	return kvSecret, nil
}

func (v *Vault) IsLoggedIn() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.isLoggedIn
}

func (v *Vault) setLoggedIn(b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.isLoggedIn = b
}
