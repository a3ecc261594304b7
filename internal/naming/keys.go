package naming

import "strings"

// Keys renders the remote object keys for every storage zone. Raw and
// processed keys are append-only (the timestamp makes each write unique);
// the durable-store key and the latest pointer are singletons overwritten
// in place.
type Keys struct {
	prefix string
	env    string
}

// NewKeys builds a key template set for the given optional prefix and
// environment tag. Leading and trailing slashes in the prefix are ignored.
func NewKeys(prefix, env string) Keys {
	return Keys{prefix: strings.Trim(prefix, "/"), env: env}
}

// RawLeaf is the append-only key for one catalog leaf's raw payload.
func (k Keys) RawLeaf(league, categorySlug, subcategorySlug, stamp string) string {
	return k.join("raw", league, categorySlug, subcategorySlug, stamp+".json")
}

// Raw is the append-only key for a single-row job's raw payload.
func (k Keys) Raw(stamp string) string {
	return k.join("raw", stamp+".json")
}

// Processed is the append-only key for the columnar artifact.
func (k Keys) Processed(stamp string) string {
	return k.join("processed", stamp+".parquet")
}

// Durable is the singleton key holding the embedded database snapshot.
func (k Keys) Durable(storeName string) string {
	return k.join("db", storeName+".db")
}

// Latest is the singleton key holding the most recent row for downstream
// readers.
func (k Keys) Latest() string {
	return k.join("latest.json")
}

func (k Keys) join(parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	if k.prefix != "" {
		segments = append(segments, k.prefix)
	}
	segments = append(segments, k.env)
	segments = append(segments, parts...)
	return strings.Join(segments, "/")
}
