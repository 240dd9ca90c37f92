package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/redis/go-redis/v9"
)

const credentialsPrefix string = "credentials"

func (RedisAdapter) credentialsKey(namespace string) string {
	return credentialsPrefix + ":" + namespace
}

func validateSlot(slot models.CredentialSlot) error {
	switch slot {
	case models.AccessTokenSlot:
		return nil
	case models.RefreshTokenSlot:
		return nil
	default:
		return fmt.Errorf("unknown credential slot: %s", slot)
	}
}

// GetCredential reads one token of a namespace, decrypting it if necessary.
func (r RedisAdapter) GetCredential(ctx context.Context, namespace string, slot models.CredentialSlot) (string, error) {
	err := validateSlot(slot)
	if err != nil {
		return "", err
	}
	raw, err := r.rdb.HGet(ctx, r.credentialsKey(namespace), string(slot)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", gwerrors.ErrTokenNotFound
		}
		return "", err
	}
	if raw == "" {
		return "", gwerrors.ErrTokenNotFound
	}
	return r.decrypt(raw)
}

// GetCredentials reads both tokens of a namespace, absent tokens are left empty.
func (r RedisAdapter) GetCredentials(ctx context.Context, namespace string) (models.CredentialPair, error) {
	output := models.CredentialPair{}
	raw, err := r.rdb.HGetAll(ctx, r.credentialsKey(namespace)).Result()
	if err != nil {
		return output, err
	}
	err = r.deserializeToStruct(raw, &output)
	if err != nil {
		if err == gwerrors.ErrMissingDBResource {
			return models.CredentialPair{}, nil
		}
		return models.CredentialPair{}, err
	}
	if output.AccessToken != "" {
		output.AccessToken, err = r.decrypt(output.AccessToken)
		if err != nil {
			return models.CredentialPair{}, err
		}
	}
	if output.RefreshToken != "" {
		output.RefreshToken, err = r.decrypt(output.RefreshToken)
		if err != nil {
			return models.CredentialPair{}, err
		}
	}
	return output, nil
}

// SetCredential writes one token of a namespace and extends the lifetime of the namespace.
// An empty value removes the token.
func (r RedisAdapter) SetCredential(ctx context.Context, namespace string, slot models.CredentialSlot, value string) error {
	if value == "" {
		return r.RemoveCredential(ctx, namespace, slot)
	}
	err := validateSlot(slot)
	if err != nil {
		return err
	}
	encValue, err := r.encrypt(value)
	if err != nil {
		return err
	}
	slog.Debug(
		"CREDENTIAL STORE",
		"message",
		"saving credential",
		"namespace",
		namespace,
		"slot",
		slot,
		"length",
		len(value),
	)
	key := r.credentialsKey(namespace)
	err = r.rdb.HSet(ctx, key, string(slot), encValue).Err()
	if err != nil {
		return err
	}
	return r.rdb.ExpireAt(ctx, key, time.Now().Add(r.credentialTTL)).Err()
}

// RemoveCredential removes one token of a namespace, removing a missing token is not an error.
func (r RedisAdapter) RemoveCredential(ctx context.Context, namespace string, slot models.CredentialSlot) error {
	err := validateSlot(slot)
	if err != nil {
		return err
	}
	return r.rdb.HDel(ctx, r.credentialsKey(namespace), string(slot)).Err()
}

// RemoveCredentials removes both tokens of a namespace, it is idempotent.
func (r RedisAdapter) RemoveCredentials(ctx context.Context, namespace string) error {
	return r.rdb.Del(ctx, r.credentialsKey(namespace)).Err()
}

func (r RedisAdapter) encrypt(value string) (string, error) {
	if r.encryptor == nil {
		return value, nil
	}
	return r.encryptor.Encrypt(value)
}

func (r RedisAdapter) decrypt(value string) (string, error) {
	if r.encryptor == nil {
		return value, nil
	}
	return r.encryptor.Decrypt(value)
}
