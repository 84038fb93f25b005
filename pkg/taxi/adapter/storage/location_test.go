package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	cases := []struct {
		in   string
		want Location
	}{
		{"s3://nyc-raw/cleaned/2022-01/part-0.parquet", Location{SchemeS3, "nyc-raw", "cleaned/2022-01/part-0.parquet"}},
		{"s3a://nyc-raw/cleaned/", Location{SchemeS3, "nyc-raw", "cleaned/"}},
		{"gs://bucket/models/model.gob", Location{SchemeGCS, "bucket", "models/model.gob"}},
		{"s3://bucket", Location{SchemeS3, "bucket", ""}},
		{"data/../data/trips.csv", Location{SchemeFile, "", "data/trips.csv"}},
		{"file:///tmp/trips.parquet", Location{SchemeFile, "", "/tmp/trips.parquet"}},
	}
	for _, tc := range cases {
		got, err := ParseLocation(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "s3://", "ftp://host/file"} {
		_, err := ParseLocation(bad)
		assert.Error(t, err, bad)
	}
}

func TestLocation_Helpers(t *testing.T) {
	loc, err := ParseLocation("s3://bucket/cleaned/2022-01/")
	require.NoError(t, err)
	assert.True(t, loc.IsRemote())
	assert.True(t, loc.IsPrefix())
	assert.Equal(t, "s3://bucket/cleaned/2022-01/part.PARQUET", loc.Join("part.PARQUET").String())
	assert.Equal(t, ".parquet", loc.Join("part.PARQUET").Ext())

	local, err := ParseLocation("artifacts")
	require.NoError(t, err)
	assert.False(t, local.IsRemote())
	assert.False(t, local.IsPrefix())
	assert.Equal(t, "artifacts/model.gob", local.Join("model.gob").String())
}
