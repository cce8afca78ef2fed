package cache

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// TenantMetadataKey is the cache key for a tenant's club metadata.
func TenantMetadataKey(slug string) string {
	return "tenant/" + slug + "/metadata"
}

// TenantKeys lists every cache key scoped to a tenant.
func TenantKeys(slug string) []string {
	return []string{TenantMetadataKey(slug)}
}

// storageKey is the persistent-tier key for key: a fixed-length BLAKE2b-256
// digest, so arbitrary caller keys are safe as file, bucket or Redis keys.
func storageKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
