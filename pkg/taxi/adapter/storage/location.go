package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Location schemes.
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
)

// Location is a parsed storage path. For local paths Bucket is empty and Key is
// the file system path.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseLocation splits s3://bucket/key and gs://bucket/key URIs. Anything else,
// including file:// URIs, is a local path.
func ParseLocation(p string) (Location, error) {
	scheme, rest, found := strings.Cut(p, "://")
	if !found {
		if p == "" {
			return Location{}, fmt.Errorf("empty location")
		}
		return Location{Scheme: SchemeFile, Key: filepath.Clean(p)}, nil
	}

	switch strings.ToLower(scheme) {
	case SchemeFile:
		if rest == "" {
			return Location{}, fmt.Errorf("empty location in '%s'", p)
		}
		return Location{Scheme: SchemeFile, Key: filepath.Clean(rest)}, nil
	case SchemeS3, "s3a", SchemeGCS:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("missing bucket in '%s'", p)
		}
		s := strings.ToLower(scheme)
		if s == "s3a" {
			s = SchemeS3
		}
		return Location{Scheme: s, Bucket: bucket, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("unsupported location scheme '%s' in '%s'", scheme, p)
	}
}

// IsRemote reports whether the location lives in an object store.
func (l Location) IsRemote() bool { return l.Scheme != SchemeFile }

// IsPrefix reports whether the location names a directory or object prefix
// rather than a single object.
func (l Location) IsPrefix() bool {
	if l.IsRemote() {
		return l.Key == "" || strings.HasSuffix(l.Key, "/")
	}
	return false
}

// Ext returns the lower-cased extension of the key (".parquet", ".csv", ...).
func (l Location) Ext() string {
	return strings.ToLower(path.Ext(l.Key))
}

// Join returns the location of name under l.
func (l Location) Join(name string) Location {
	if l.IsRemote() {
		key := strings.TrimSuffix(l.Key, "/")
		if key == "" {
			return Location{Scheme: l.Scheme, Bucket: l.Bucket, Key: name}
		}
		return Location{Scheme: l.Scheme, Bucket: l.Bucket, Key: key + "/" + name}
	}
	return Location{Scheme: SchemeFile, Key: filepath.Join(l.Key, name)}
}

func (l Location) String() string {
	if l.IsRemote() {
		return l.Scheme + "://" + l.Bucket + "/" + l.Key
	}
	return l.Key
}
