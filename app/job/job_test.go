package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_Validate(t *testing.T) {
	tbl := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"valid", Job{Name: "nightly", Source: "s", Destination: "d"}, false},
		{"valid with time", Job{Name: "nightly", Source: "s", Destination: "d", Time: "07:15"}, false},
		{"valid with compression", Job{Name: "a", Source: "s", Destination: "d", Flags: Flags{Compression: CompressionGzip}}, false},
		{"empty name", Job{Name: " ", Source: "s", Destination: "d"}, true},
		{"slash in name", Job{Name: "a/b", Source: "s", Destination: "d"}, true},
		{"empty source", Job{Name: "a", Destination: "d"}, true},
		{"empty destination", Job{Name: "a", Source: "s"}, true},
		{"bad time", Job{Name: "a", Source: "s", Destination: "d", Time: "7:15"}, true},
		{"bad hour", Job{Name: "a", Source: "s", Destination: "d", Time: "24:00"}, true},
		{"bad compression", Job{Name: "a", Source: "s", Destination: "d", Flags: Flags{Compression: "rar"}}, true},
		{"upper case compression", Job{Name: "a", Source: "s", Destination: "d", Flags: Flags{Compression: "GZIP"}}, true},
		{"none compression", Job{Name: "a", Source: "s", Destination: "d", Flags: Flags{Compression: "none"}}, true},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJob_Clock(t *testing.T) {
	h, m, err := Job{}.Clock()
	require.NoError(t, err)
	assert.Equal(t, 0, h)
	assert.Equal(t, 0, m)

	h, m, err = Job{Time: "21:05"}.Clock()
	require.NoError(t, err)
	assert.Equal(t, 21, h)
	assert.Equal(t, 5, m)

	_, _, err = Job{Time: "noon"}.Clock()
	assert.Error(t, err)
}

func TestDays(t *testing.T) {
	d := NewDays(time.Friday, time.Monday, time.Wednesday)
	assert.True(t, d.Any())
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, d.Weekdays())
	assert.Equal(t, "Mon,Wed,Fri", d.String())

	assert.False(t, Days{}.Any())
	assert.Equal(t, "", Days{}.String())
}

func TestCompression(t *testing.T) {
	c, err := ParseCompression("GZIP")
	require.NoError(t, err)
	assert.Equal(t, CompressionGzip, c)
	assert.Equal(t, "gzip", c.String())

	c, err = ParseCompression("none")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)
	assert.Equal(t, "none", c.String())

	_, err = ParseCompression("lz4")
	assert.Error(t, err)

	var cc Compression
	require.NoError(t, cc.UnmarshalText([]byte("zstd")))
	assert.Equal(t, CompressionZstd, cc)
	txt, err := CompressionNone.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "none", string(txt))
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"title": "rbackup jobs document"`)
	assert.Contains(t, s, `"destination"`)
	assert.Contains(t, s, `"zstd"`)
	assert.Contains(t, s, `"follow_links"`)
}
