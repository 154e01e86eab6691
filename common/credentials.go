/*
 * Copyright 2024 Comcast Cable Communications Management, LLC
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

package common

import (
	"context"
	"fmt"
	"strings"
	"sync"

	cm_vault "github.com/comcast/fishyinventory/vault"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ChassisCreds = ChassisCredentials{
		Creds: make(map[string]*Credential),
	}
)

type ChassisCredentials struct {
	mu       sync.Mutex
	Creds    map[string]*Credential
	Vault    *cm_vault.Vault
	Profiles CredentialProfiles
}

type Credential struct {
	User string
	Pass string
}

// CredentialProfile says where in vault the credentials of a class of BMCs live
type CredentialProfile struct {
	Name          string `yaml:"name"`
	MountPath     string `yaml:"mountPath"`
	Path          string `yaml:"path"`
	UserField     string `yaml:"userField"`
	PasswordField string `yaml:"passwordField"`
	SecretName    string `yaml:"secretName"`
}

// CredentialProfiles is a kingpin.Value holding the profiles passed on the command line
// as YAML (or JSON, which is valid YAML), e.g.
//
//	profiles:
//	  - name: idrac
//	    mountPath: secret
//	    path: idrac
//	    userField: username
//	    passwordField: password
type CredentialProfiles struct {
	Profiles []CredentialProfile `yaml:"profiles"`
}

func (c *CredentialProfiles) Set(value string) error {
	var parsed CredentialProfiles
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		return fmt.Errorf("error parsing credential profiles - %w", err)
	}
	for i, p := range parsed.Profiles {
		if p.Name == "" || p.MountPath == "" {
			return fmt.Errorf("credential profile %d requires a name and a mountPath", i)
		}
		if p.UserField == "" {
			parsed.Profiles[i].UserField = "username"
		}
		if p.PasswordField == "" {
			parsed.Profiles[i].PasswordField = "password"
		}
	}
	c.Profiles = append(c.Profiles, parsed.Profiles...)
	return nil
}

func (c *CredentialProfiles) String() string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}

// Lookup returns the profile with the given name
func (c *CredentialProfiles) Lookup(name string) (CredentialProfile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return CredentialProfile{}, false
}

func (c *ChassisCredentials) Get(key string) (*Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.Creds[key]
	return val, ok
}

func (c *ChassisCredentials) Set(key string, value *Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Creds[key] = value
}

func (c *ChassisCredentials) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Creds, key)
}

// Resolve returns the cached credential for target or fetches it from vault and caches it
func (c *ChassisCredentials) Resolve(ctx context.Context, profile, target string) (*Credential, error) {
	if cred, ok := c.Get(target); ok {
		return cred, nil
	}
	cred, err := c.GetCredentials(ctx, profile, target)
	if err != nil {
		return nil, err
	}
	c.Set(target, cred)
	return cred, nil
}

func (c *ChassisCredentials) GetCredentials(ctx context.Context, profile, target string) (*Credential, error) {
	var ok bool
	var user, pass string

	log := zap.L()

	if c.Vault == nil {
		return nil, fmt.Errorf("issue retrieving credentials from vault using target: %s - vault client not configured", target)
	}

	prof, ok := c.Profiles.Lookup(profile)
	if !ok {
		return nil, fmt.Errorf("credential profile %q not found", profile)
	}

	secret, err := c.Vault.GetKVSecret(ctx, &cm_vault.SecretProperties{
		MountPath:     prof.MountPath,
		Path:          prof.Path,
		UserField:     prof.UserField,
		PasswordField: prof.PasswordField,
		SecretName:    prof.SecretName,
	}, target)
	if err != nil {
		log.Error("issue retrieving credentials from vault using target "+target, zap.Error(err))
		return nil, fmt.Errorf("issue retrieving credentials from vault using target: %s - %w", target, err)
	}

	if user, ok = secret.Data[prof.UserField].(string); !ok {
		return nil, fmt.Errorf("the secret retrieved from vault using target %s is missing the %q field", target, prof.UserField)
	}

	if pass, ok = secret.Data[prof.PasswordField].(string); !ok {
		return nil, fmt.Errorf("the secret retrieved from vault using target %s is missing the %q field", target, prof.PasswordField)
	}

	return &Credential{
		User: user,
		Pass: pass,
	}, nil
}
