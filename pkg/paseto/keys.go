package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

// Mode selects the PASETO v4 purpose.
type Mode string

const (
	// ModeLocal encrypts tokens with a shared key. Every verifier can mint.
	ModeLocal Mode = "local"
	// ModePublic signs tokens. Verify-only nodes need just the public key.
	ModePublic Mode = "public"
)

type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

// KeyStrings are hex encoded keys as they appear in config.
type KeyStrings struct {
	Mode         Mode
	SymmetricHex string
	SecretHex    string
	PublicHex    string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocal(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublic(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	}
	return Keys{}, ErrConfig{Msg: "authentication.paseto.mode must be local or public"}
}

func loadLocal(symHex string) (Keys, error) {
	if symHex == "" {
		return Keys{}, ErrConfig{Msg: "local mode needs local_key_hex"}
	}
	k, err := paseto.V4SymmetricKeyFromHex(symHex)
	if err != nil {
		return Keys{}, ErrConfig{Msg: "local_key_hex: " + err.Error()}
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

// loadPublic accepts a secret key (public half derived), a public key alone
// for verify-only nodes, or both.
func loadPublic(secHex, pubHex string) (Keys, error) {
	out := Keys{Mode: ModePublic}
	if secHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "secret_key_hex: " + err.Error()}
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}
	if pubHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "public_key_hex: " + err.Error()}
		}
		out.Public = &pk
	}
	if out.Public == nil {
		return Keys{}, ErrConfig{Msg: "public mode needs secret_key_hex or public_key_hex"}
	}
	return out, nil
}

// NewLocalKeys generates a fresh symmetric key. Used by tests and the CLI.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}

func (k Keys) seal(tok paseto.Token, implicit []byte) (string, error) {
	switch {
	case k.Mode == ModeLocal && k.Symmetric != nil:
		return tok.V4Encrypt(*k.Symmetric, implicit), nil
	case k.Mode == ModePublic && k.Secret != nil:
		return tok.V4Sign(*k.Secret, implicit), nil
	}
	return "", ErrConfig{Msg: "no key available to issue " + string(k.Mode) + " tokens"}
}

func (k Keys) open(p paseto.Parser, raw string, implicit []byte) (*paseto.Token, error) {
	switch {
	case k.Mode == ModeLocal && k.Symmetric != nil:
		return p.ParseV4Local(*k.Symmetric, raw, implicit)
	case k.Mode == ModePublic && k.Public != nil:
		return p.ParseV4Public(*k.Public, raw, implicit)
	}
	return nil, ErrConfig{Msg: "no key available to verify " + string(k.Mode) + " tokens"}
}
